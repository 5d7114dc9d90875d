package cmd

import (
	"github.com/spf13/cobra"

	"github.com/s0up4200/metasync/fbe"
	"github.com/s0up4200/metasync/heartbeat"
)

var heartbeatLoop bool

var heartbeatCmd = &cobra.Command{
	Use:   "heartbeat",
	Short: "Report the plugin version to the business extension when it changed",
	RunE:  runHeartbeat,
}

func init() {
	rootCmd.AddCommand(heartbeatCmd)

	heartbeatCmd.Flags().BoolVar(&heartbeatLoop, "loop", false, "keep running every heartbeat.interval")
}

func runHeartbeat(cmd *cobra.Command, args []string) error {
	if err := cfg.Require("external_business_id"); err != nil {
		return err
	}

	pluginVersion := cfg.Heartbeat.PluginVersion
	if pluginVersion == "" {
		pluginVersion = version
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	hb := heartbeat.New(
		fbe.NewService(graphClient, cfg.Business.ExternalBusinessID, logger),
		st,
		fbe.PluginVersion{Version: pluginVersion, IsMultisite: cfg.Heartbeat.Multisite},
		logger,
	)

	if heartbeatLoop {
		hb.Loop(cmd.Context(), cfg.Heartbeat.Interval)
		return nil
	}
	hb.Run(cmd.Context())
	return nil
}
