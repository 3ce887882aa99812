// Command sadl decodes South African driving licence barcode payloads.
package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"go-sadl-decoder/document"
	"go-sadl-decoder/images"
	"go-sadl-decoder/keys"
	log "go-sadl-decoder/logging"
	"go-sadl-decoder/models"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	keysPath string
	logLevel string
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sadl",
		Short:        "South African driving licence barcode decoder",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel == "" {
				logLevel = os.Getenv("SADL_LOG_LEVEL")
			}
			if logLevel == "" {
				logLevel = "warn"
			}
			log.InitLoggerTo(cmd.ErrOrStderr(), logLevel)
		},
	}

	root.PersistentFlags().StringVar(&keysPath, "keys", "", "Key table YAML (default: embedded table)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (or set SADL_LOG_LEVEL)")

	root.AddCommand(decodeCmd())
	root.AddCommand(keysCmd())
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sadl version %s\n", version)
		},
	}
}

func keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the key versions of the key table",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := keys.Load(keysPath)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "VERSION\tHEADER\tTRAILER KEY\tDEFAULT")
			for _, id := range table.IDs() {
				v, _ := table.Version(id)
				def := ""
				if id == table.DefaultID() {
					def = "*"
				}
				fmt.Fprintf(w, "%s\t%X\t%t\t%s\n", v.ID, v.Header, v.TrailerKey != nil, def)
			}
			return w.Flush()
		},
	}
}

func decodeCmd() *cobra.Command {
	var (
		hexPayload string
		file       string
		raw        bool
		keyVersion string
		asJSON     bool
		photoPath  string
	)
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a barcode payload",
		Long:  "Decode a barcode payload given as hex with --hex, read from --file, or read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := keys.Load(keysPath)
			if err != nil {
				return err
			}
			decoder, err := document.NewLicenceDecoder(table, true)
			if err != nil {
				return err
			}

			input, err := readPayload(cmd.InOrStdin(), hexPayload, file)
			if err != nil {
				return err
			}

			var response models.DecodeResponse
			if raw {
				response, err = decoder.DecodeBytes(input, keyVersion)
			} else {
				response, err = decoder.Decode(string(input), keyVersion)
			}
			if err != nil {
				return err
			}

			if photoPath != "" {
				if err := writePhoto(photoPath, response); err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(response)
			}
			return printRecord(cmd.OutOrStdout(), response)
		},
	}
	cmd.Flags().StringVar(&hexPayload, "hex", "", "Payload as hex")
	cmd.Flags().StringVar(&file, "file", "", "Read the payload from a file")
	cmd.Flags().BoolVar(&raw, "raw", false, "Payload is binary, not hex")
	cmd.Flags().StringVar(&keyVersion, "version", "", "Key version to use instead of the header match")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().StringVar(&photoPath, "photo", "", "Write the licence photo as PNG to this path")
	cmd.MarkFlagsMutuallyExclusive("hex", "file")
	cmd.MarkFlagsMutuallyExclusive("raw", "hex")
	return cmd
}

func readPayload(stdin io.Reader, hexPayload, file string) ([]byte, error) {
	switch {
	case hexPayload != "":
		return []byte(hexPayload), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload from stdin: %w", err)
	}
	return data, nil
}

func writePhoto(path string, response models.DecodeResponse) error {
	record := response.Record
	container := images.ImageContainer{
		ImageData: record.Image,
		Width:     record.ImageWidth,
		Height:    record.ImageHeight,
	}
	encoded, err := container.ConvertToPNG()
	if err != nil {
		return fmt.Errorf("failed to convert licence photo: %w", err)
	}
	png, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return err
	}
	return os.WriteFile(path, png, 0o644)
}

func printRecord(out io.Writer, response models.DecodeResponse) error {
	r := response.Record
	dates := make([]string, 0, len(r.LicenceCodeIssueDates))
	for _, d := range r.LicenceCodeIssueDates {
		dates = append(dates, d.String())
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Key version", response.Version},
		{"Complete", fmt.Sprint(response.Complete)},
		{"Vehicle codes", strings.Join(r.VehicleCodes, ", ")},
		{"Surname", r.Surname},
		{"Initials", r.Initials},
		{"PrDP code", r.PrDPCode},
		{"ID country of issue", r.IDCountryOfIssue},
		{"Licence country of issue", r.LicenceCountryOfIssue},
		{"Vehicle restrictions", strings.Join(r.VehicleRestrictions, ", ")},
		{"Licence number", r.LicenceNumber},
		{"ID number", r.IDNumber},
		{"ID number type", r.IDNumberType},
		{"Licence code issue dates", strings.Join(dates, ", ")},
		{"Driver restriction codes", r.DriverRestrictionCodes},
		{"PrDP expiry date", r.PrDPExpiryDate.String()},
		{"Licence issue number", r.LicenceIssueNumber},
		{"Birth date", r.BirthDate.String()},
		{"Licence issue date", r.LicenceIssueDate.String()},
		{"Licence expiry date", r.LicenceExpiryDate.String()},
		{"Gender", string(r.Gender)},
		{"Image", fmt.Sprintf("%dx%d, %d bytes", r.ImageWidth, r.ImageHeight, len(r.Image))},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s:\t%s\n", row[0], row[1])
	}
	if len(r.Defaulted) > 0 {
		fmt.Fprintf(w, "Defaulted:\t%s\n", strings.Join(r.Defaulted, ", "))
	}
	return w.Flush()
}
