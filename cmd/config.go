package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/brogergvhs/yandanshe/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var (
	flagForceRemove bool
	flagConfigFrom  string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, used, err := config.LoadMerged(config.Options{
			IgnoreConfig: flagIgnoreConfig,
			Debug:        flagDebug,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Loaded config from:\n  %s\n\n", used)
		cfg.Print()
		return nil
	},
}

func init() {
	configAddCmd := &cobra.Command{
		Use:   "add [label]",
		Short: "Create a new config from the defaults or from a file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigAdd,
	}
	configAddCmd.Flags().StringVar(&flagConfigFrom, "from", "", "copy an existing YAML file")

	configRemoveCmd := &cobra.Command{
		Use:   "remove <label>",
		Short: "Remove a config",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigRemove,
	}
	configRemoveCmd.Flags().BoolVarP(&flagForceRemove, "force", "f", false, "do not ask before removing the active config")

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create the Default config",
			Args:  cobra.NoArgs,
			RunE:  runConfigInit,
		},
		configAddCmd,
		&cobra.Command{
			Use:   "list",
			Short: "List all available configs",
			Args:  cobra.NoArgs,
			RunE:  runConfigList,
		},
		&cobra.Command{
			Use:   "switch [label]",
			Short: "Switch to a different config",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runConfigSwitch,
		},
		&cobra.Command{
			Use:   "rename <old_label> <new_label>",
			Short: "Rename a config",
			Args:  cobra.ExactArgs(2),
			RunE:  runConfigRename,
		},
		configRemoveCmd,
		&cobra.Command{
			Use:   "reset",
			Short: "Reset the active config to default values",
			Args:  cobra.NoArgs,
			RunE:  runConfigReset,
		},
		&cobra.Command{
			Use:   "edit [label]",
			Short: "Open the active or the given config in $EDITOR",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runConfigEdit,
		},
	)

	rootCmd.AddCommand(configCmd)
}

// confirm asks a yes/no question; anything but yes is a no.
func confirm(label string) bool {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := prompt.Run()
	return err == nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	fmt.Println("Default configuration:")
	config.DefaultConfig().Print()
	fmt.Println()

	if !confirm("Create the Default config") {
		fmt.Println("Aborted.")
		return nil
	}

	path, err := config.InitDefaultConfig()
	if errors.Is(err, os.ErrExist) {
		fmt.Println("Configuration already exists at:")
		fmt.Println("  ", path)
		fmt.Println("Use `yandanshe config reset` to recreate it.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Println("Config created at:", path)
	fmt.Println("This config is now active (label: Default).")
	return nil
}

func runConfigAdd(cmd *cobra.Command, args []string) error {
	var label string
	if len(args) == 1 {
		label = args[0]
	} else {
		prompt := promptui.Prompt{Label: "Label for new config"}
		var err error
		if label, err = prompt.Run(); err != nil {
			return fmt.Errorf("input cancelled")
		}
	}

	path, err := config.CreateConfig(label, config.DefaultConfig(), flagConfigFrom)
	if err != nil {
		return err
	}

	fmt.Printf("Created new config: %s\n", path)
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	list, err := config.ListConfigs()
	if err != nil {
		return fmt.Errorf("cannot read configs directory: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 4, ' ', 0)
	_, _ = fmt.Fprintln(w, "LABEL\tPATH\tACTIVE")
	for _, c := range list {
		mark := ""
		if c.Active {
			mark = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c.Label, c.Path, mark)
	}

	return w.Flush()
}

func runConfigSwitch(cmd *cobra.Command, args []string) error {
	var label string

	if len(args) == 1 {
		label = args[0]
	} else {
		list, err := config.ListConfigs()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return fmt.Errorf("no configs available")
		}

		items := make([]string, 0, len(list))
		for _, c := range list {
			if c.Active {
				items = append(items, c.Label+"  (active)")
			} else {
				items = append(items, c.Label)
			}
		}

		prompt := promptui.Select{Label: "Select config", Items: items}
		idx, _, err := prompt.Run()
		if err != nil {
			return fmt.Errorf("selection cancelled")
		}

		label = list[idx].Label
	}

	if err := config.SwitchConfig(label); err != nil {
		return err
	}

	fmt.Println("Switched to:", label)
	return nil
}

func runConfigRename(cmd *cobra.Command, args []string) error {
	if err := config.RenameConfig(args[0], args[1]); err != nil {
		return err
	}

	fmt.Printf("Renamed config %q to %q\n", args[0], args[1])
	return nil
}

func runConfigRemove(cmd *cobra.Command, args []string) error {
	label := args[0]

	if active, _ := config.CurrentLabel(); label == active && !flagForceRemove {
		if !confirm(fmt.Sprintf("Config %q is currently active. Remove it anyway", label)) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fellBack, err := config.RemoveConfig(label)
	if err != nil {
		return err
	}
	if fellBack {
		fmt.Println("Fallback switched to: Default")
	}

	fmt.Printf("Removed configuration %q\n", label)
	return nil
}

func runConfigReset(cmd *cobra.Command, _ []string) error {
	activePath, err := config.ActiveConfigPath()
	if err != nil {
		return err
	}

	if err := config.SaveYAML(config.DefaultConfig(), activePath); err != nil {
		return err
	}

	fmt.Printf("Reset active config: %s\n", activePath)
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	var label string
	if len(args) == 1 {
		label = args[0]
	} else {
		var err error
		if label, err = config.CurrentLabel(); err != nil {
			return fmt.Errorf("failed to get current config label: %w", err)
		}
	}

	path, err := config.ConfigPathByLabel(label)
	if err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "nvim"
	}

	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	if err := c.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}

	return nil
}
