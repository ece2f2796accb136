package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kirillkom/document-router/internal/core/ports"
)

func (c *cli) classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify FILE...",
		Short: "Extract, classify and analyze local files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cls, err := c.classification()
			if err != nil {
				return err
			}

			files := make([]ports.FileContent, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				files = append(files, ports.FileContent{
					Filename: filepath.Base(path),
					MimeType: mime.TypeByExtension(filepath.Ext(path)),
					Data:     data,
				})
			}

			if len(files) == 1 {
				result, err := cls.Service.ClassifyFile(cmd.Context(), files[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			}
			result, err := cls.Service.ClassifyBatch(cmd.Context(), files)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}
