package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/kvcache"
)

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print the envelope stored under id as JSON (null on a miss)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.cfg.open(cmd.Context(), a.log)
			if err != nil {
				return err
			}
			defer c.Stop()

			env, err := c.Get(cmd.Context(), kvcache.ID(args[0]))
			if err != nil {
				return err
			}
			return a.printJSON(env)
		},
	}
}

func (a *app) setCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "set <id> <json>",
		Short: "Store a JSON value under id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
				return fmt.Errorf("value is not valid JSON: %w", err)
			}

			c, err := a.cfg.open(cmd.Context(), a.log)
			if err != nil {
				return err
			}
			defer c.Stop()
			return c.Set(cmd.Context(), kvcache.ID(args[0]), value, ttl)
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Record lifetime (0 = no expiry)")
	return cmd
}

func (a *app) dropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <id>",
		Short: "Remove the record stored under id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.cfg.open(cmd.Context(), a.log)
			if err != nil {
				return err
			}
			defer c.Stop()
			return c.Drop(cmd.Context(), kvcache.ID(args[0]))
		},
	}
}

func (a *app) checkSegmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-segment <name>",
		Short: "Validate a segment name without connecting",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := kvcache.ValidateSegmentName(args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintln(a.out, "ok")
			return err
		},
	}
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
