// Package gtin validates GS1 trade item numbers (EAN-8, UPC-A, EAN-13, ITF-14).
//
// The server uses it to reject malformed codes before they are stored on a
// part. The editor widget deliberately does not: it submits whatever the user
// typed and shows the server's verdict.
package gtin
