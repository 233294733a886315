package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/voicelearn/vleval/internal/download"
	"github.com/voicelearn/vleval/internal/spinner"
)

func newDownloadCommand() *cobra.Command {
	var (
		out      string
		sha256   string
		noResume bool
	)

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Download a model artifact with resume and checksum verification",
		Long: `Download a model artifact.

Interrupted downloads resume from a .part file when the server supports
range requests. With --sha256 the finished file is verified before being
moved into place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			url := args[0]
			dest := out
			if dest == "" {
				name := path.Base(url)
				if name == "" || name == "." || name == "/" {
					return fmt.Errorf("cannot derive a filename from %s; use --out", url)
				}
				dest = filepath.Join(cfg.Downloads.Dir, name)
			}

			spin := spinner.Start(os.Stderr, "downloading "+filepath.Base(dest))
			err = download.Fetch(cmd.Context(), url, dest, download.Options{
				SHA256: sha256,
				Resume: !noResume,
				Progress: func(p download.Progress) {
					if p.TotalBytes > 0 {
						percent := float64(p.BytesDownloaded) / float64(p.TotalBytes) * 100
						spin.Update(fmt.Sprintf("downloading %s  %.0f%% (%d/%d bytes)",
							filepath.Base(dest), percent, p.BytesDownloaded, p.TotalBytes))
						return
					}
					spin.Update(fmt.Sprintf("downloading %s  %d bytes", filepath.Base(dest), p.BytesDownloaded))
				},
			})
			spin.Stop()
			if err != nil {
				return err
			}
			fmt.Printf("Downloaded %s\n", dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Destination path (defaults to the configured models dir)")
	cmd.Flags().StringVar(&sha256, "sha256", "", "Expected SHA-256 checksum (hex)")
	cmd.Flags().BoolVar(&noResume, "no-resume", false, "Ignore any partial download and start over")
	return cmd
}
