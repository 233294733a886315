package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/storage"
)

func newModelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage registered models",
	}
	cmd.AddCommand(newModelAddCommand())
	cmd.AddCommand(newModelListCommand())
	cmd.AddCommand(newModelRemoveCommand())
	return cmd
}

func newModelAddCommand() *cobra.Command {
	var (
		name       string
		slug       string
		modelType  string
		sourceType string
		sourceURI  string
		paramsB    float64
		sizeGB     float64
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a model for evaluation",
		Long: `Register a model for evaluation.

With no flags, an interactive form collects the model details. Flags skip
the corresponding form fields.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || modelType == "" {
				if err := runModelWizard(&name, &slug, &modelType, &sourceType, &sourceURI); err != nil {
					return err
				}
			}
			if slug == "" {
				slug = slugify(name)
			}

			spec := &models.ModelSpec{
				Name:       name,
				Slug:       slug,
				ModelType:  models.ModelCategory(modelType),
				SourceType: sourceType,
				SourceURI:  sourceURI,
				IsActive:   true,
			}
			if paramsB > 0 {
				spec.ParameterCountB = &paramsB
			}
			if sizeGB > 0 {
				spec.ModelSizeGB = &sizeGB
			}

			db, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			if err := storage.NewModelStore(db).Create(cmd.Context(), spec); err != nil {
				return fmt.Errorf("registering model: %w", err)
			}
			fmt.Printf("Registered %s (%s)\n", spec.Name, spec.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&slug, "slug", "", "URL-safe identifier (derived from name if empty)")
	cmd.Flags().StringVar(&modelType, "type", "", "Model type: llm, stt, or tts")
	cmd.Flags().StringVar(&sourceType, "source", "huggingface", "Source type: huggingface, local, api, ollama")
	cmd.Flags().StringVar(&sourceURI, "uri", "", "Source URI (repo ID, path, or URL)")
	cmd.Flags().Float64Var(&paramsB, "params", 0, "Parameter count in billions")
	cmd.Flags().Float64Var(&sizeGB, "size", 0, "On-disk size in GB")

	return cmd
}

// runModelWizard collects missing model fields with an interactive form.
func runModelWizard(name, slug, modelType, sourceType, sourceURI *string) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Model name").
				Placeholder("Phi-4 Mini Instruct").
				Value(name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Slug").
				Description("URL-safe identifier; leave empty to derive from the name").
				Value(slug),
			huh.NewSelect[string]().
				Title("Model type").
				Options(
					huh.NewOption("LLM (text)", "llm"),
					huh.NewOption("STT (speech to text)", "stt"),
					huh.NewOption("TTS (text to speech)", "tts"),
				).
				Value(modelType),
			huh.NewSelect[string]().
				Title("Source").
				Options(
					huh.NewOption("Hugging Face", "huggingface"),
					huh.NewOption("Local path", "local"),
					huh.NewOption("Hosted API", "api"),
					huh.NewOption("Ollama", "ollama"),
				).
				Value(sourceType),
			huh.NewInput().
				Title("Source URI").
				Placeholder("microsoft/Phi-4-mini-instruct").
				Value(sourceURI),
		),
	)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return fmt.Errorf("model form failed: %w", err)
	}
	return nil
}

func newModelListCommand() *cobra.Command {
	var modelType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered models",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			list, err := storage.NewModelStore(db).List(cmd.Context(), storage.ModelFilter{
				ModelType: models.ModelCategory(modelType),
			})
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No models registered. Add one with: vleval model add")
				return nil
			}
			printModelTable(list)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelType, "type", "", "Filter by model type: llm, stt, or tts")
	return cmd
}

func printModelTable(list []*models.ModelSpec) {
	nameWidth := len("Name")
	for _, m := range list {
		if w := runewidth.StringWidth(m.Name); w > nameWidth {
			nameWidth = w
		}
	}

	fmt.Printf("%s  %-6s  %-12s  %-8s  %s\n", padRight("Name", nameWidth), "Type", "Source", "Params", "ID")
	for _, m := range list {
		params := "-"
		if m.ParameterCountB != nil {
			params = strconv.FormatFloat(*m.ParameterCountB, 'f', -1, 64) + "B"
		}
		fmt.Printf("%s  %-6s  %-12s  %-8s  %s\n",
			padRight(m.Name, nameWidth), m.ModelType, m.SourceType, params, m.ID)
	}
}

func newModelRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <slug>",
		Short: "Remove a model and all of its runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			store := storage.NewModelStore(db)
			m, err := store.GetBySlug(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("model %q: %w", args[0], err)
			}
			if err := store.Delete(cmd.Context(), m.ID); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", m.Name)
			return nil
		},
	}
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

// slugify lowercases a name and collapses non-alphanumeric runs to hyphens.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == '.':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
