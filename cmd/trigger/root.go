package trigger

import (
	"fmt"
	"strings"

	"github.com/grove-db/grove/cmd/util"
	"github.com/grove-db/grove/lib/dispatch"
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/store"
	"github.com/grove-db/grove/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcStore store.ITreeStore

	// TriggerCommands represents the trigger command group
	TriggerCommands = &cobra.Command{
		Use:               "trigger",
		Short:             "Register and inspect change triggers",
		PersistentPreRunE: setupTriggerClient,
	}

	registerCmd = &cobra.Command{
		Use:   "register [id] [pattern] [sproc-path]",
		Short: "Registers a trigger that invokes a stored procedure on matching changes",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pat, err := path.ParseString(args[1])
			if err != nil {
				return err
			}
			sprocPath, err := path.ParsePath(args[2])
			if err != nil {
				return err
			}
			priority, _ := cmd.Flags().GetInt("priority")
			filter := dispatch.EventFilter{Pattern: pat, Actions: parseActions(cmd)}
			if err := rpcStore.RegisterTrigger(args[0], pat, filter, sprocPath, priority); err != nil {
				return err
			}
			fmt.Println("register succeeded")
			return nil
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitClientConfig)

	util.SetupRPCClientFlags(TriggerCommands)

	TriggerCommands.PersistentFlags().Int("shard", 100, util.WrapString("ID of the shard to connect to"))

	registerCmd.Flags().Int("priority", 0, util.WrapString("Relative priority among triggers matching the same change"))
	registerCmd.Flags().String("actions", "create,update,delete", util.WrapString("Comma-separated list of actions to fire on (create, update, delete)"))

	TriggerCommands.AddCommand(registerCmd)
}

func parseActions(cmd *cobra.Command) map[dispatch.Action]bool {
	raw, _ := cmd.Flags().GetString("actions")
	actions := make(map[dispatch.Action]bool)
	for _, a := range strings.Split(raw, ",") {
		switch strings.TrimSpace(a) {
		case "create":
			actions[dispatch.ActionCreate] = true
		case "update":
			actions[dispatch.ActionUpdate] = true
		case "delete":
			actions[dispatch.ActionDelete] = true
		}
	}
	return actions
}

// setupTriggerClient initializes the RPC store client
func setupTriggerClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config := util.GetClientConfig()
	shardId := util.GetShardID()

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	rpcStore, err = client.NewRPCTreeStore(
		shardId,
		*config,
		t,
		s,
	)

	return err
}
