package commands

import (
	"fmt"

	"github.com/GlueOps/glueops/internal/config"
	"github.com/GlueOps/glueops/kube"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewKubeCommand returns the command to check Kubernetes access.
func NewKubeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kube",
		Short: "Check Kubernetes access",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Verify that the cluster API accepts the current credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cfg)
			if err != nil {
				return err
			}
			clients, err := kube.Setup(settings.KubeOptions())
			if err != nil {
				return err
			}
			if err := clients.Ping(cmd.Context()); err != nil {
				cfg.Log().Error("cluster is not reachable", zap.Bool("in_cluster", kube.InCluster()), zap.Error(err))
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return err
		},
	})

	return cmd
}
