package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sitediary/internal/client"
	"sitediary/models"
)

type app struct {
	v      *viper.Viper
	client *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "diaryctl",
		Short:         "Browse and edit construction site diaries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.client = client.New(a.v.GetString("api"), a.v.GetDuration("timeout"))
		},
	}
	root.PersistentFlags().String("api", "http://localhost:8080", "API base URL")
	root.PersistentFlags().Duration("timeout", 15*time.Second, "request timeout")
	_ = a.v.BindPFlag("api", root.PersistentFlags().Lookup("api"))
	_ = a.v.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))
	a.v.SetEnvPrefix("DIARYCTL")
	a.v.AutomaticEnv()

	root.AddCommand(
		a.listCmd(),
		a.showCmd(),
		a.createCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.weatherCmd(),
		a.sitesCmd(),
	)
	return root
}

// notify печатает ошибку одной строкой, нарушения схемы построчно ниже
func notify(w io.Writer, err error) error {
	var apiErr *client.APIError
	var issues []models.Issue
	switch {
	case errors.As(err, &apiErr):
		fmt.Fprintf(w, "%s: %s\n", apiErr.Code, apiErr.Message)
		issues = apiErr.Issues
	default:
		if ve, ok := models.AsValidationError(err); ok {
			fmt.Fprintln(w, "INVALID_INPUT: Invalid input")
			issues = ve.Issues
		} else {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
	}
	for _, is := range issues {
		if is.Path == "" {
			fmt.Fprintf(w, "  - %s\n", is.Message)
			continue
		}
		fmt.Fprintf(w, "  - %s: %s\n", is.Path, is.Message)
	}
	return err
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("id", "Id must be a positive integer")
	}
	return id, nil
}

// readPayload читает JSON из файла или stdin ("-") в dst
func readPayload(cmd *cobra.Command, path string, dst interface{}) error {
	raw, err := readPayloadFile(cmd, path)
	if err != nil {
		return err
	}
	return decodePayload(raw, dst)
}

func readPayloadFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "open payload file")
	}
	return raw, nil
}

func decodePayload(raw []byte, dst interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalidPayload(err)
	}
	return nil
}

// overlayPayload накладывает поля из raw на p.
// Списки visitors и images из файла заменяют текущие целиком.
func overlayPayload(p *models.UpdatePayload, raw []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return invalidPayload(err)
	}
	for key := range fields {
		switch {
		case strings.EqualFold(key, "visitors"):
			p.Visitors = nil
		case strings.EqualFold(key, "images"):
			p.Images = nil
		}
	}
	return decodePayload(raw, p)
}

func invalidPayload(err error) error {
	return models.NewValidationError("", "Invalid payload file: "+strings.TrimPrefix(err.Error(), "json: "))
}
