package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/grischamedia/gmean/internal/config"
	"github.com/grischamedia/gmean/internal/discovery"
	"github.com/grischamedia/gmean/internal/ean"
	"github.com/grischamedia/gmean/internal/gtin"
	"github.com/grischamedia/gmean/internal/ui"
	"github.com/grischamedia/gmean/internal/urls"
)

// Common flags
var (
	serverURL      string
	partPK         int
	requestTimeout int
	scanTimeout    int
	outputFormat   string
	noLive         bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "gm-ean-server base URL (default from config)")
	rootCmd.PersistentFlags().IntVar(&partPK, "part", 0, "Part primary key (default from config)")
	rootCmd.PersistentFlags().IntVar(&requestTimeout, "timeout", 10, "Request timeout in seconds (0 = none)")

	rootCmd.Flags().BoolVar(&noLive, "no-live", false, "Do not subscribe to live EAN updates")

	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(discoverCmd)
}

// editCmd opens the interactive EAN panel
var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the interactive EAN panel for a part",
	Long: `Open the interactive EAN panel for a part.

Type the EAN/GTIN and press enter to save it. The status line shows
"Gespeichert" when the server accepted the code, or the server's reason when
it did not. EANs saved elsewhere show up live.`,
	Example: `  # Edit the default part from the config file
  gm-ean

  # Edit part 42 on a specific server
  gm-ean edit --part 42 --server http://lager.local:8000`,
	RunE: runEdit,
}

func init() {
	editCmd.Flags().BoolVar(&noLive, "no-live", false, "Do not subscribe to live EAN updates")
}

func runEdit(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the EAN panel needs a terminal; use 'gm-ean set' in scripts")
	}

	base, pk, err := resolveTarget()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, panelCtx, err := openPanel(ctx, base, pk)
	if err != nil {
		return err
	}

	cfg := ui.EditorConfig{
		Panel:     ean.NewPanel(panelCtx.SetURL, panelCtx.EAN),
		Client:    client,
		Cookies:   client.CookiesFor(base),
		Part:      pk,
		PartName:  panelCtx.PartName,
		ServerURL: base,
	}

	if !noLive {
		eventsURL, err := urls.WebSocketURL(base, urls.EventsRoute)
		if err != nil {
			return err
		}
		cfg.EventsURL = eventsURL
	}

	if err := ui.RunEditor(ctx, cfg); err != nil {
		return fmt.Errorf("panel error: %w", err)
	}
	return nil
}

// setCmd saves an EAN without the interactive panel
var setCmd = &cobra.Command{
	Use:   "set <ean>",
	Short: "Save an EAN for a part",
	Long: `Save an EAN/GTIN for a part without opening the panel.

The code is trimmed and sent exactly like the panel sends it; the server
decides whether it is accepted. Use --check to validate the GS1 check digit
locally before sending.`,
	Example: `  # Save an EAN-13 for part 42
  gm-ean set 4006381333931 --part 42

  # Validate locally first
  gm-ean set 96385074 --part 42 --check`,
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

var checkDigit bool

func init() {
	setCmd.Flags().BoolVar(&checkDigit, "check", false, "Validate the GS1 check digit before saving")
}

// fixedInput is an ean.Input holding a command-line argument
type fixedInput struct{ value string }

func (f *fixedInput) Value() string     { return f.value }
func (f *fixedInput) SetValue(v string) { f.value = v }

// lastStatus is an ean.StatusView remembering the final status
type lastStatus struct{ status ean.Status }

func (l *lastStatus) SetStatus(s ean.Status) { l.status = s }

func runSet(cmd *cobra.Command, args []string) error {
	base, pk, err := resolveTarget()
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(os.Stdout)

	if checkDigit && args[0] != "" {
		if err := gtin.Validate(args[0]); err != nil {
			printer.PrintError("Ungültige EAN", err, nil)
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, panelCtx, err := openPanel(ctx, base, pk)
	if err != nil {
		return err
	}

	panel := ean.NewPanel(panelCtx.SetURL, panelCtx.EAN)
	status := &lastStatus{}
	ean.NewWidget(panel, &fixedInput{value: args[0]}, status, client.CookiesFor(base), client)

	if err := panel.Save(ctx); err != nil {
		printer.PrintError(status.status.Message, err, ean.TroubleshootingHint(err))
		return fmt.Errorf("save failed: %s", ean.ShortMessage(err))
	}

	printer.PrintStatus(status.status,
		ui.Param{Key: "Part", Value: partLabel(pk, panelCtx.PartName)},
		ui.Param{Key: "EAN", Value: panel.Current()},
	)
	if status.status.Kind != ean.StatusSuccess {
		return fmt.Errorf("server rejected the EAN: %s", status.status.Message)
	}
	return nil
}

// searchCmd resolves an EAN to a part
var searchCmd = &cobra.Command{
	Use:   "search <ean>",
	Short: "Find the part carrying an EAN",
	Example: `  gm-ean search 4006381333931`,
	Args:    cobra.ExactArgs(1),
	RunE:    runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	base, err := resolveServer()
	if err != nil {
		return err
	}

	ctx, cancel := requestContext()
	defer cancel()

	printer := ui.NewPrinter(os.Stdout)
	result, err := newClient().Search(ctx, base, args[0])
	if err != nil {
		printer.PrintError("Suche fehlgeschlagen", err, ean.TroubleshootingHint(err))
		return fmt.Errorf("search failed: %s", ean.ShortMessage(err))
	}

	if !result.Found {
		printer.PrintError(result.Message, nil, nil)
		return fmt.Errorf("no part found for %q", args[0])
	}

	printer.PrintSuccess("Teil gefunden",
		ui.Param{Key: "EAN", Value: args[0]},
		ui.Param{Key: "URL", Value: result.Location},
	)
	return nil
}

// showCmd displays the EAN panel context of a part
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a part's EAN panel",
	Example: `  gm-ean show --part 42

  # JSON output for scripting
  gm-ean show --part 42 --format json`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")
}

func runShow(cmd *cobra.Command, args []string) error {
	base, pk, err := resolveTarget()
	if err != nil {
		return err
	}

	ctx, cancel := requestContext()
	defer cancel()

	_, panelCtx, err := openPanel(ctx, base, pk)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(panelCtx, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	current := panelCtx.EAN
	if current == "" {
		current = "–"
	}

	printer := ui.NewPrinter(os.Stdout)
	printer.PrintHeader(panelCtx.Title, "gm-ean show",
		ui.Param{Key: "Part", Value: partLabel(pk, panelCtx.PartName)},
		ui.Param{Key: "EAN", Value: current},
		ui.Param{Key: "Metadata", Value: panelCtx.MetadataKey},
		ui.Param{Key: "Set URL", Value: panelCtx.SetURL},
	)
	return nil
}

// discoverCmd finds servers on the local network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover gm-ean servers on the network",
	Long: `Discover gm-ean servers using mDNS/DNS-SD.

Only servers started with --advertise are found.`,
	Example: `  gm-ean discover
  gm-ean discover --scan-timeout 10`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&scanTimeout, "scan-timeout", 0, "Scan timeout in seconds (default from config)")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	timeout := scanTimeout
	if timeout <= 0 {
		timeout = clientPrefs().DiscoverTimeout
	}
	if timeout <= 0 {
		timeout = int(discovery.DefaultScanTimeout / time.Second)
	}

	fmt.Printf("Scanning for gm-ean servers (timeout: %ds)...\n\n", timeout)

	servers, err := discovery.ScanForServers(time.Duration(timeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(servers) == 0 {
		fmt.Println("No servers found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Start the server with: gm-ean-server serve --advertise")
		fmt.Println("  - Check that both machines are on the same network")
		fmt.Println("  - Try increasing --scan-timeout")
		return nil
	}

	fmt.Printf("Found %d server(s):\n\n", len(servers))

	for i, s := range servers {
		fmt.Printf("%d. %s\n", i+1, s.Instance)
		fmt.Printf("   URL:      %s\n", s.BaseURL())
		if v := s.Version(); v != "" {
			fmt.Printf("   Version:  %s\n", v)
		}
		fmt.Println()
	}

	fmt.Println("Use 'gm-ean --server <url> --part <pk>' to edit a part's EAN")
	return nil
}

// clientPrefs returns the CLI defaults from the config file
func clientPrefs() *config.ClientPrefs {
	registry, err := config.LoadRegistry()
	if err != nil || registry.Client == nil {
		return config.DefaultClientPrefs()
	}
	return registry.Client
}

func resolveServer() (string, error) {
	if serverURL != "" {
		return serverURL, nil
	}
	if url := clientPrefs().ServerURL; url != "" {
		return url, nil
	}
	return "", fmt.Errorf("no server specified. Use --server or run 'gm-ean discover'")
}

func resolveTarget() (string, int, error) {
	base, err := resolveServer()
	if err != nil {
		return "", 0, err
	}

	pk := partPK
	if pk == 0 {
		pk = clientPrefs().DefaultPart
	}
	if pk <= 0 {
		return "", 0, fmt.Errorf("no part specified. Use --part <pk>")
	}
	return base, pk, nil
}

func newClient() *ean.Client {
	client := ean.NewClient()
	client.SetTimeout(time.Duration(requestTimeout) * time.Second)
	return client
}

func requestContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openPanel loads the panel context of a part. The client's cookie jar holds
// the server's CSRF cookie afterwards.
func openPanel(ctx context.Context, base string, pk int) (*ean.Client, *ean.PanelContext, error) {
	client := newClient()
	panelCtx, err := client.FetchPanel(ctx, base, pk)
	if err != nil {
		ui.NewPrinter(os.Stderr).PrintError("Panel konnte nicht geladen werden", err, ean.TroubleshootingHint(err))
		return nil, nil, fmt.Errorf("failed to load panel: %s", ean.ShortMessage(err))
	}
	return client, panelCtx, nil
}

func partLabel(pk int, name string) string {
	label := "#" + strconv.Itoa(pk)
	if name != "" {
		label += " " + name
	}
	return label
}
