package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/grischamedia/gmean/internal/config"
	"github.com/grischamedia/gmean/internal/ean"
	"github.com/grischamedia/gmean/internal/gtin"
	"github.com/grischamedia/gmean/internal/logging"
	"github.com/grischamedia/gmean/internal/urls"
	"github.com/grischamedia/gmean/internal/version"
)

// Messages returned to clients. They are shown verbatim in the panel.
const (
	msgPOSTRequired     = "POST required"
	msgPartNotFound     = "Part not found"
	msgMissingCode      = "Missing code"
	msgForbiddenFields  = "Unerlaubte Felder in der Anfrage"
	msgInvalidGTIN      = "Ungültige EAN/GTIN"
	msgDuplicateFmt     = "EAN bereits vergeben (Teil #%d)"
	msgNoPartForEAN     = "Kein Teil mit dieser EAN gefunden"
	msgStoreFailed      = "Speichern fehlgeschlagen"
	msgPartFound        = "Gefundenes Teil"
	msgNotFound         = "Not found"
	msgMethodNotAllowed = "Method not allowed"
	panelTitle          = "EAN / GTIN"
	panelIcon           = "fas fa-barcode"
	csrfFormField       = "csrfmiddlewaretoken"
	maxScanBodySize     = 64 << 10
	maxFormMemory       = 1 << 20
	barcodeField        = "barcode"
	contentTypeJSON     = "application/json"
	contentTypeTextHTML = "text/html; charset=utf-8"
)

// Form keys the set endpoint accepts when core fields are locked
var allowedSetFields = map[string]bool{
	ean.FormField: true,
	csrfFormField: true,
}

// PartDetail is the JSON representation of a part
type PartDetail struct {
	PK       int               `json:"pk"`
	Name     string            `json:"name"`
	EAN      string            `json:"ean"`
	Metadata map[string]string `json:"metadata"`
	URL      string            `json:"url"`
}

func errorBody(message string) map[string]any {
	return map[string]any{"success": false, "error": message}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Error("Failed to encode response", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeBadRequest writes a plain 400 without the trailing newline
// http.Error would add
func writeBadRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", contentTypeTextHTML)
	w.WriteHeader(http.StatusBadRequest)
	_, _ = io.WriteString(w, message)
}

func partKey(r *http.Request) (int, bool) {
	pk, err := strconv.Atoi(mux.Vars(r)["pk"])
	if err != nil {
		return 0, false
	}
	return pk, true
}

func (s *Server) partDetail(pk int, part config.Part) PartDetail {
	metadata := part.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	return PartDetail{
		PK:       pk,
		Name:     part.Name,
		EAN:      metadata[s.registry.MetadataKey()],
		Metadata: metadata,
		URL:      urls.PartDetailPath(pk),
	}
}

// handleSetEAN stores an EAN on a part
func (s *Server) handleSetEAN(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeBadRequest(w, msgPOSTRequired)
		return
	}

	pk, ok := partKey(r)
	if !ok {
		writeBadRequest(w, msgPartNotFound)
		return
	}
	if _, exists := s.registry.GetPart(pk); !exists {
		writeBadRequest(w, msgPartNotFound)
		return
	}

	if err := parseSetForm(r); err != nil {
		writeBadRequest(w, "Invalid form data")
		return
	}

	settings := s.registry.SettingsSnapshot()
	if settings.LockCoreFields {
		for _, key := range formKeys(r) {
			if !allowedSetFields[key] {
				logging.Warn("Rejected EAN save with extra fields",
					zap.Int("part", pk),
					zap.String("field", key),
				)
				writeJSON(w, http.StatusBadRequest, errorBody(msgForbiddenFields))
				return
			}
		}
	}

	code := r.PostForm.Get(ean.FormField)
	if code == "" {
		code = r.URL.Query().Get(ean.FormField)
	}
	code = strings.TrimSpace(code)

	if !gtin.ChecksumValid(code) {
		writeJSON(w, http.StatusBadRequest, errorBody(msgInvalidGTIN))
		return
	}

	key := s.registry.MetadataKey()

	s.saveMu.Lock()
	if other, found := s.registry.FindPartByMetadata(key, code); found && other != pk {
		s.saveMu.Unlock()
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf(msgDuplicateFmt, other)))
		return
	}
	previous, _ := s.registry.GetPart(pk)
	s.registry.SetPartMetadata(pk, key, code)
	err := s.persist()
	if err != nil {
		s.registry.PutPart(pk, previous)
	}
	s.saveMu.Unlock()

	if err != nil {
		logging.Error("Failed to persist part store", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody(msgStoreFailed))
		return
	}

	logging.Info("EAN saved",
		zap.Int("part", pk),
		zap.String("ean", code),
		zap.String("kind", gtin.Kind(code)),
	)

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "ean": code})
	s.hub.Broadcast(ean.Event{Type: ean.EventSaved, Part: pk, EAN: code})
}

// parseSetForm fills r.PostForm from a urlencoded or multipart body
func parseSetForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxFormMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

// formKeys lists the submitted body field names, file fields included
func formKeys(r *http.Request) []string {
	keys := make([]string, 0, len(r.PostForm))
	for key := range r.PostForm {
		keys = append(keys, key)
	}
	if r.MultipartForm != nil {
		for key := range r.MultipartForm.File {
			keys = append(keys, key)
		}
	}
	return keys
}

// persist writes the registry when it is backed by a file
func (s *Server) persist() error {
	if s.registry.Path() == "" {
		return nil
	}
	return s.registry.Save()
}

// handleSearch redirects to the part carrying the code
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		writeBadRequest(w, msgMissingCode)
		return
	}

	pk, found := s.registry.FindPartByMetadata(s.registry.MetadataKey(), code)
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody(msgNoPartForEAN))
		return
	}

	http.Redirect(w, r, urls.PartDetailPath(pk), http.StatusFound)
}

// handlePanel returns the EAN panel context for a part
func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	if !s.registry.SettingsSnapshot().EnablePanel {
		writeJSON(w, http.StatusNotFound, errorBody("Panel disabled"))
		return
	}

	pk, ok := partKey(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody(msgPartNotFound))
		return
	}
	part, exists := s.registry.GetPart(pk)
	if !exists {
		writeJSON(w, http.StatusNotFound, errorBody(msgPartNotFound))
		return
	}

	key := s.registry.MetadataKey()
	writeJSON(w, http.StatusOK, ean.PanelContext{
		Title:       panelTitle,
		Icon:        panelIcon,
		Part:        pk,
		PartName:    part.Name,
		EAN:         part.Metadata[key],
		MetadataKey: key,
		SetURL:      urls.SetPath(pk),
		PluginSlug:  urls.PluginSlug,
	})
}

// handleScan resolves a scanned barcode to a part. Anything that is not a
// known, valid GTIN is left to other barcode handlers with a 204.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if !s.registry.SettingsSnapshot().EnableBarcodeScan {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	code := scanBarcode(r)
	if !gtin.IsGS1Like(code) || !gtin.ChecksumValid(code) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	pk, found := s.registry.FindPartByMetadata(s.registry.MetadataKey(), code)
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	part, exists := s.registry.GetPart(pk)
	if !exists {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"part":    s.partDetail(pk, part),
		"success": msgPartFound,
	})
}

// scanBarcode reads the barcode from a JSON body {"barcode": ...} or the
// form field of the same name
func scanBarcode(r *http.Request) string {
	if strings.HasPrefix(r.Header.Get("Content-Type"), contentTypeJSON) {
		var body struct {
			Barcode string `json:"barcode"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, maxScanBodySize)).Decode(&body); err != nil {
			return ""
		}
		return body.Barcode
	}
	return r.PostFormValue(barcodeField)
}

// handlePartDetail returns a part as JSON
func (s *Server) handlePartDetail(w http.ResponseWriter, r *http.Request) {
	pk, ok := partKey(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody(msgPartNotFound))
		return
	}
	part, exists := s.registry.GetPart(pk)
	if !exists {
		writeJSON(w, http.StatusNotFound, errorBody(msgPartNotFound))
		return
	}
	writeJSON(w, http.StatusOK, s.partDetail(pk, part))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"version":     version.Version,
		"subscribers": s.hub.Count(),
	})
}
