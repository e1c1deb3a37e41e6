package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/config"
	"braid.dev/braid/internal/engine"
	"braid.dev/braid/internal/git"
	"braid.dev/braid/internal/output"
	"braid.dev/braid/internal/runtime"
)

// InferTrunk attempts to infer the trunk branch name: the remote HEAD if it
// is cached locally, otherwise a conventionally named local branch.
func InferTrunk(ctx context.Context, remote string, branchNames []string) string {
	remoteHead := git.FindRemoteHeadBranch(ctx, remote)
	if remoteHead != "" && slices.Contains(branchNames, remoteHead) {
		return remoteHead
	}
	return engine.FindCommonlyNamedTrunk(branchNames)
}

// selectTrunkBranch resolves the trunk to use: the inferred one when prompts
// are unavailable, otherwise the user's pick with the inference as default.
func selectTrunkBranch(branchNames []string, inferredTrunk string) (string, error) {
	if !output.IsInteractive() {
		if inferredTrunk != "" {
			return inferredTrunk, nil
		}
		return "", fmt.Errorf("could not infer the trunk branch; pass one with --trunk or run interactively")
	}

	defaultBranch := inferredTrunk
	if defaultBranch == "" {
		defaultBranch = branchNames[0]
	}
	return output.PromptSelect("Select your trunk branch:", branchNames, defaultBranch)
}

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	var (
		trunk string
		reset bool
	)

	cmd := &cobra.Command{
		Use:          "init",
		Short:        "Initialize braid in the current repository",
		Long:         `Initialize braid in the current repository by picking the trunk branch all stacks grow from.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repoRoot, gitDir, err := runtime.Discover()
			if err != nil {
				return err
			}

			branchNames, err := git.GetAllBranchNames()
			if err != nil {
				return fmt.Errorf("failed to list branches: %w", err)
			}
			if len(branchNames) == 0 {
				return fmt.Errorf("no branches found; create your first commit and re-run %s", "braid init")
			}

			splog := output.NewSplog()
			remote := git.GetRemote()

			trunkName := trunk
			if trunkName == "" {
				inferred := InferTrunk(cmd.Context(), remote, branchNames)
				selected, err := selectTrunkBranch(branchNames, inferred)
				if err != nil {
					return err
				}
				trunkName = selected
			} else if !slices.Contains(branchNames, trunkName) {
				return fmt.Errorf("branch %q not found", trunkName)
			}

			wasInitialized := config.IsInitialized(gitDir)
			if err := config.SetTrunk(gitDir, trunkName); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			if err := config.SetRemote(gitDir, remote); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			if wasInitialized {
				splog.Info("Reinitializing braid...")
			} else {
				splog.Info("Welcome to braid!")
			}
			splog.Info("Trunk set to %s.", output.ColorBranchName(trunkName, false))

			if reset {
				store := git.NewMetadataStore(nil)
				entries, err := store.ReadAll()
				if err != nil {
					return fmt.Errorf("failed to read branch metadata: %w", err)
				}
				for branchName := range entries {
					if err := store.Delete(branchName); err != nil {
						return fmt.Errorf("failed to untrack %s: %w", branchName, err)
					}
				}
				splog.Info("All branches have been untracked.")
				return nil
			}

			// Loading the engine validates the stored metadata against the
			// chosen trunk and prunes entries for branches that no longer
			// exist.
			if _, err := engine.NewEngine(repoRoot, trunkName, nil, nil, nil); err != nil {
				return fmt.Errorf("failed to load branch metadata: %w", err)
			}
			splog.Info("Braid initialized. Stack a branch with %s.", output.ColorCyan("braid create"))
			return nil
		},
	}

	cmd.Flags().StringVar(&trunk, "trunk", "", "The name of your trunk branch")
	cmd.Flags().BoolVar(&reset, "reset", false, "Untrack all branches")

	return cmd
}
