package commands

import (
	"context"
	"fmt"

	"github.com/GlueOps/glueops"
	"github.com/GlueOps/glueops/internal/config"
	"github.com/GlueOps/glueops/tag"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewAWSCommand returns the command to look up AWS resources.
func NewAWSCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aws",
		Short: "Look up AWS resources",
	}

	var (
		tagArgs []string
		types   []string
	)
	resources := &cobra.Command{
		Use:   "resources",
		Short: "Print the ARNs of resources that have all the given tags",
		Long: `Print the ARNs of resources that have all the given tags.

Examples:
  glueops aws resources --tag env=prod --tag team=platform --type s3:bucket`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := parseKeyValues(tagArgs)
			if err != nil {
				return err
			}
			if len(tags) == 0 {
				return errors.New("must specify at least one tag")
			}

			settings, err := loadSettings(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			c, err := tag.NewBasicTagClient(ctx, *settings.AWSOptions())
			if err != nil {
				return errors.Wrap(err, "creating tag client")
			}
			defer func() { _ = c.Close(ctx) }()

			return runResources(ctx, cmd, c, tags, types)
		},
	}
	resources.Flags().StringArrayVar(&tagArgs, "tag", nil, "tag filter as key=value (repeatable)")
	resources.Flags().StringSliceVar(&types, "type", nil, "resource type filter, e.g. ec2:instance (repeatable)")

	cmd.AddCommand(resources)
	return cmd
}

func runResources(ctx context.Context, cmd *cobra.Command, c glueops.TagClient, tags map[string]string, types []string) error {
	arns, err := tag.ResourceARNs(ctx, c, tags, types)
	if err != nil {
		return errors.Wrap(err, "getting resources")
	}
	for _, arn := range arns {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), arn); err != nil {
			return err
		}
	}
	return nil
}
