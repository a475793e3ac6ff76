package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"contract-backend/internal/extract"
	"contract-backend/internal/pdf"
	"contract-backend/internal/shared/config"
	"contract-backend/internal/shared/storage/object"
	localstore "contract-backend/internal/shared/storage/object/local"
	s3store "contract-backend/internal/shared/storage/object/s3"
)

// generatorFor builds a generator over the PDF directory. No engines are
// needed since these commands never render.
func generatorFor(cfg config.Config) *pdf.Generator {
	return pdf.NewGenerator(nil, localstore.New(cfg.PDFDir), nil)
}

func newCleanupCmd(cfg func() config.Config) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete generated PDFs older than the retention period",
		Long: `Cleanup removes PDFs from the local PDF directory whose modification
time is older than --days. Archived copies are kept.

Examples:
  # Use PDF_RETENTION_DAYS (default 30)
  contractctl cleanup

  # Keep one week
  contractctl cleanup --days 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if !cmd.Flags().Changed("days") {
				days = c.PDFRetentionDays
			}
			if days < 1 {
				return fmt.Errorf("--days must be a positive integer")
			}
			res, err := generatorFor(c).CleanupOlderThan(cmd.Context(), time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range res.Deleted {
				fmt.Fprintf(out, "deleted %s\n", name)
			}
			fmt.Fprintf(out, "Deleted %d PDF files older than %d days, kept %d\n", len(res.Deleted), days, res.Kept)
			return nil
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", 30, "Delete files older than this many days")
	return cmd
}

func newPDFsCmd(cfg func() config.Config) *cobra.Command {
	var contractID int64
	cmd := &cobra.Command{
		Use:   "pdfs",
		Short: "List generated PDFs",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := generatorFor(cfg())
			var (
				files []pdf.File
				err   error
			)
			if contractID > 0 {
				files, err = gen.ListForContract(cmd.Context(), contractID)
			} else {
				files, err = gen.List(cmd.Context())
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range files {
				fmt.Fprintf(out, "%s\t%d\t%s\n", f.Name, f.Size, f.CreatedAt.Format(time.RFC3339))
			}
			fmt.Fprintf(out, "%d files\n", len(files))
			return nil
		},
	}
	cmd.Flags().Int64VarP(&contractID, "contract", "c", 0, "Only list PDFs of this contract")
	return cmd
}

func newInspectCmd(cfg func() config.Config) *cobra.Command {
	var (
		fromArchive bool
		showText    bool
	)
	cmd := &cobra.Command{
		Use:   "inspect <filename>",
		Short: "Print page count and text of a generated PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := pdf.CheckName(name); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			store, err := inspectStore(cmd.Context(), cfg(), fromArchive)
			if err != nil {
				return err
			}
			info, err := extract.Inspect(cmd.Context(), store, name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file:  %s\npages: %d\nsize:  %d bytes\n", info.Key, info.Pages, info.Size)
			if showText {
				fmt.Fprintln(out, strings.TrimSpace(info.Text))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromArchive, "archive", false, "Read the S3 archive copy instead of the local file")
	cmd.Flags().BoolVar(&showText, "text", false, "Print the extracted text")
	return cmd
}

func inspectStore(ctx context.Context, c config.Config, fromArchive bool) (object.ObjectStore, error) {
	if !fromArchive {
		return localstore.New(c.PDFDir), nil
	}
	if c.S3Bucket == "" {
		return nil, fmt.Errorf("--archive needs S3_BUCKET")
	}
	return s3store.New(ctx, c.AWSRegion, c.S3Bucket, c.S3Prefix, c.SSEKMSKeyID)
}
