package tree

import (
	"github.com/grove-db/grove/cmd/util"
	"github.com/grove-db/grove/lib/store"
	"github.com/grove-db/grove/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcStore store.ITreeStore

	// TreeCommands represents the tree command group
	TreeCommands = &cobra.Command{
		Use:               "tree",
		Short:             "Perform tree store operations",
		PersistentPreRunE: setupTreeClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the tree command
	util.SetupRPCClientFlags(TreeCommands)

	// Set default shard ID for tree operations
	TreeCommands.PersistentFlags().Int("shard", 100, util.WrapString("ID of the shard to connect to"))

	// Add subcommands
	TreeCommands.AddCommand(putCmd)
	TreeCommands.AddCommand(createCmd)
	TreeCommands.AddCommand(updateCmd)
	TreeCommands.AddCommand(casCmd)
	TreeCommands.AddCommand(getCmd)
	TreeCommands.AddCommand(existsCmd)
	TreeCommands.AddCommand(countCmd)
	TreeCommands.AddCommand(delCmd)
	TreeCommands.AddCommand(delManyCmd)
	TreeCommands.AddCommand(delPayloadCmd)
	TreeCommands.AddCommand(sprocCmd)
	TreeCommands.AddCommand(perfTestCmd)
}

// setupTreeClient initializes the RPC store client
func setupTreeClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()
	shardId := util.GetShardID()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the tree store client
	rpcStore, err = client.NewRPCTreeStore(
		shardId,
		*config,
		t,
		s,
	)

	return err
}
