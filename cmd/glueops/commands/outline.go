package commands

import (
	"context"
	"fmt"

	"github.com/GlueOps/glueops"
	"github.com/GlueOps/glueops/internal/config"
	"github.com/GlueOps/glueops/outline"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDocumentClient(cfg *config.Config) (*outline.BasicDocumentClient, error) {
	settings, err := loadSettings(cfg)
	if err != nil {
		return nil, err
	}
	c, err := outline.NewBasicDocumentClient(settings.OutlineOptions())
	if err != nil {
		return nil, errors.Wrap(err, "creating Outline client")
	}
	return c, nil
}

// withDocumentClient runs fn with a client that is closed afterwards.
func withDocumentClient(cmd *cobra.Command, cfg *config.Config, fn func(ctx context.Context, c glueops.DocumentClient) error) error {
	c, err := newDocumentClient(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer func() { _ = c.Close(ctx) }()

	return fn(ctx, c)
}

// NewOutlineCommand returns the command to manage Outline documents.
func NewOutlineCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Manage Outline documents",
	}

	var updateFile string
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Replace the markdown content of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, updateFile)
			if err != nil {
				return err
			}
			return withDocumentClient(cmd, cfg, func(ctx context.Context, c glueops.DocumentClient) error {
				if err := c.UpdateContent(ctx, args[0], text); err != nil {
					return errors.Wrapf(err, "updating document '%s'", args[0])
				}
				cfg.Log().Info("updated document", zap.String("id", args[0]))
				return nil
			})
		},
	}
	update.Flags().StringVarP(&updateFile, "file", "f", "", "markdown file, or '-' for stdin")

	info := &cobra.Command{
		Use:   "info ID",
		Short: "Print the ID the API reports for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocumentClient(cmd, cfg, func(ctx context.Context, c glueops.DocumentClient) error {
				id, err := c.GetID(ctx, args[0])
				if err != nil {
					return errors.Wrapf(err, "getting document '%s'", args[0])
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
				return err
			})
		},
	}

	children := &cobra.Command{
		Use:   "children PARENT_ID",
		Short: "Print the IDs of the documents directly under a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocumentClient(cmd, cfg, func(ctx context.Context, c glueops.DocumentClient) error {
				for id, err := range c.ChildIDs(ctx, args[0]) {
					if err != nil {
						return errors.Wrapf(err, "listing children of '%s'", args[0])
					}
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), id); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	var createTitle, createFile string
	create := &cobra.Command{
		Use:   "create PARENT_ID",
		Short: "Publish a new document under a document and print its ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if createTitle == "" {
				return errors.New("must specify a title")
			}
			var text string
			if createFile != "" {
				var err error
				if text, err = readInput(cmd, createFile); err != nil {
					return err
				}
			}
			return withDocumentClient(cmd, cfg, func(ctx context.Context, c glueops.DocumentClient) error {
				id, err := c.Create(ctx, args[0], createTitle, text)
				if err != nil {
					return errors.Wrapf(err, "creating document under '%s'", args[0])
				}
				cfg.Log().Info("created document", zap.String("id", id), zap.String("parent_id", args[0]))
				_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
				return err
			})
		},
	}
	create.Flags().StringVarP(&createTitle, "title", "t", "", "document title")
	create.Flags().StringVarP(&createFile, "file", "f", "", "markdown file, or '-' for stdin")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocumentClient(cmd, cfg, func(ctx context.Context, c glueops.DocumentClient) error {
				if err := c.Delete(ctx, args[0]); err != nil {
					return errors.Wrapf(err, "deleting document '%s'", args[0])
				}
				cfg.Log().Info("deleted document", zap.String("id", args[0]))
				return nil
			})
		},
	}

	prune := &cobra.Command{
		Use:   "prune PARENT_ID",
		Short: "Delete every document directly under a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocumentClient(cmd, cfg, func(ctx context.Context, c glueops.DocumentClient) error {
				n, err := outline.DeleteChildren(ctx, c, args[0])
				if err != nil {
					cfg.Log().Error("pruning stopped", zap.String("parent_id", args[0]), zap.Int("deleted", n), zap.Error(err))
					return errors.Wrapf(err, "pruning children of '%s' after deleting %d", args[0], n)
				}
				cfg.Log().Info("pruned documents", zap.String("parent_id", args[0]), zap.Int("deleted", n))
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d documents\n", n)
				return err
			})
		},
	}

	cmd.AddCommand(update, info, children, create, del, prune)
	return cmd
}
