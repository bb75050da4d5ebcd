package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eringen/spacetraveling/scaffold"
)

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	ProjectName   string
	SiteName      string
	APIEndpoint   string
	SessionSecret string
	WebhookSecret string
}

func (c *cli) newInitCmd() *cobra.Command {
	var endpoint string
	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Create a config file and environment template for a new site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			name := filepath.Base(filepath.Clean(dir))
			if name == "." || name == string(filepath.Separator) {
				if wd, err := os.Getwd(); err == nil {
					name = filepath.Base(wd)
				}
			}
			sessionSecret, err := randomSecret()
			if err != nil {
				return err
			}
			webhookSecret, err := randomSecret()
			if err != nil {
				return err
			}
			return runInit(c.out, dir, scaffoldData{
				ProjectName:   name,
				SiteName:      toTitle(name),
				APIEndpoint:   endpoint,
				SessionSecret: sessionSecret,
				WebhookSecret: webhookSecret,
			})
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "https://your-repo.cdn.prismic.io/api/v2", "Prismic API endpoint")
	return cmd
}

func runInit(out io.Writer, dir string, data scaffoldData) error {
	fmt.Fprintf(out, "Creating spacetraveling site in %s\n\n", dir)

	root := "templates"
	err := fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		outPath := filepath.Join(dir, relPath)
		outPath = strings.TrimSuffix(outPath, ".tmpl")

		// dotenv is stored without the leading dot so embed picks it up.
		if filepath.Base(outPath) == "dotenv" {
			outPath = filepath.Join(filepath.Dir(outPath), ".env.example")
		}

		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		content, err := scaffold.Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s already exists", outPath)
		}
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()

		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}

		fmt.Fprintf(out, "  created %s\n", outPath)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Done! Next steps:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  cd %s\n", dir)
	fmt.Fprintln(out, "  spacetraveling build")
	fmt.Fprintln(out, "  spacetraveling serve")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Set api_endpoint in spacetraveling.yaml, and point the Prismic webhook at /api/revalidate.")
	return nil
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "space-traveling" -> "Space Traveling"
func toTitle(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return cases.Title(language.Und).String(s)
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
