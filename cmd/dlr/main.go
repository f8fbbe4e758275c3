package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cl "dealersim/internal/cli"
	"dealersim/internal/config"
	"dealersim/internal/game"
	"dealersim/internal/syncq"
)

type app struct {
	apiBase  string
	home     string
	settings cl.Settings
}

func main() {
	a := &app{}
	if home, err := syncq.DefaultDir(); err == nil {
		a.home = home
	}
	a.settings, _ = cl.LoadSettings(a.home)
	a.apiBase = config.LoadCLIFromEnv().APIBaseURL
	if os.Getenv("DLR_API_BASE_URL") == "" && a.settings.APIBaseURL != "" {
		a.apiBase = a.settings.APIBaseURL
	}

	root := &cobra.Command{
		Use:          "dlr",
		Short:        "Dealership simulation CLI client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.apiBase, "api", a.apiBase, "API base URL")

	root.AddCommand(
		a.newStateCmd(),
		a.newHealthCmd(),
		a.newReportsCmd(),
		a.newInventoryCmd(),
		a.newArchetypesCmd(),
		a.newTickCmd(),
		a.newCloseoutCmd(),
		a.newPauseCmd(),
		a.newResumeCmd(),
		a.newSpeedCmd(),
		a.newHireCmd(),
		a.newTrainCmd(),
		a.newStaffCmd(),
		a.newBuyCmd(),
		a.newRestockCmd(),
		a.newPriceCmd(),
		a.newPricingCmd(),
		a.newMarketingCmd(),
		a.newTuneCmd(),
		a.newSyncCmd(),
		a.newConfigCmd(),
		a.newWatchCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) client() *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(a.apiBase), "/"))
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func (a *app) newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the dealership dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			st, err := a.client().State(ctx)
			if err != nil {
				return err
			}
			renderState(st)
			return nil
		},
	}
}

func (a *app) newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show guardrail warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			h, err := a.client().Health(ctx)
			if err != nil {
				return err
			}
			renderHealth(h)
			return nil
		},
	}
}

func (a *app) newReportsCmd() *cobra.Command {
	reports := &cobra.Command{
		Use:   "reports",
		Short: "Daily and monthly reports",
	}
	var limit int
	daily := &cobra.Command{
		Use:   "daily",
		Short: "Closed business days",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			out, err := a.client().DailyReports(ctx)
			if err != nil {
				return err
			}
			renderDailyReports(out, limit)
			return nil
		},
	}
	daily.Flags().IntVar(&limit, "last", 10, "show only the last N days (0 for all)")
	reports.AddCommand(daily, &cobra.Command{
		Use:   "monthly",
		Short: "Month roll-ups",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			out, err := a.client().MonthlyReports(ctx)
			if err != nil {
				return err
			}
			renderMonthlyReports(out)
			return nil
		},
	})
	return reports
}

func (a *app) newInventoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "List vehicles on the lot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			out, supply, err := a.client().Inventory(ctx)
			if err != nil {
				return err
			}
			renderInventory(out, supply)
			return nil
		},
	}
}

func (a *app) newArchetypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archetypes",
		Short: "List hireable archetypes and vehicle segments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			out, err := a.client().Archetypes(ctx)
			if err != nil {
				return err
			}
			for _, key := range []string{"advisors", "technicians", "segments"} {
				accent.Printf("%-12s ", key)
				fmt.Println(strings.Join(out[key], ", "))
			}
			return nil
		},
	}
}

func (a *app) newTickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick [hours]",
		Short: "Advance the simulation by whole hours",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours := 1
			if len(args) > 0 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v <= 0 {
					return fmt.Errorf("invalid hours %q", args[0])
				}
				hours = v
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			st, err := a.client().Tick(ctx, hours)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Now %s %02d:00, cash $%s.", st.Date, st.Hour, money(st.Cash)))
			if st.AwaitingCloseout {
				printWarn("Business day ended. Run `dlr closeout`.")
			}
			return nil
		},
	}
}

func (a *app) newCloseoutCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "closeout",
		Short: "Close out the business day",
		RunE: func(cmd *cobra.Command, args []string) error {
			idem := uuid.NewString()
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			rep, err := a.client().CloseOut(ctx, force, idem)
			if err != nil {
				return a.queueOnNetworkError(err, syncq.Command{
					Method:         http.MethodPost,
					Path:           "/v1/closeout",
					Body:           map[string]any{"force": force},
					IdempotencyKey: idem,
				})
			}
			renderReport(rep)
			printInfo("Run `dlr resume` to open the next day.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "close out even if the day has not ended")
	return cmd
}

func (a *app) newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the simulation clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.send(cmd, http.MethodPost, "/v1/pause", nil, "Paused.")
		},
	}
}

func (a *app) newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume the simulation clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.send(cmd, http.MethodPost, "/v1/resume", nil, "Resumed.")
		},
	}
}

func (a *app) newSpeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "speed <1|2|4|8>",
		Short: "Set the simulation speed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			speed, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid speed %q", args[0])
			}
			return a.send(cmd, http.MethodPost, "/v1/speed", map[string]any{"speed": speed}, fmt.Sprintf("Speed set to %dx.", speed))
		},
	}
}

func (a *app) newHireCmd() *cobra.Command {
	hire := &cobra.Command{
		Use:   "hire",
		Short: "Hire staff",
	}
	var name, archetype string
	advisor := &cobra.Command{
		Use:   "advisor",
		Short: "Hire a sales advisor",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"name": name, "archetype": archetype}
			return a.send(cmd, http.MethodPost, "/v1/advisors", body, "Advisor hired.")
		},
	}
	tech := &cobra.Command{
		Use:   "tech",
		Short: "Hire a service technician",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"name": name, "archetype": archetype}
			return a.send(cmd, http.MethodPost, "/v1/technicians", body, "Technician hired.")
		},
	}
	for _, c := range []*cobra.Command{advisor, tech} {
		c.Flags().StringVar(&name, "name", "", "name (random when empty)")
		c.Flags().StringVar(&archetype, "archetype", "", "archetype (see `dlr archetypes`)")
	}
	manager := &cobra.Command{
		Use:   "manager",
		Short: "Hire or replace the sales manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.send(cmd, http.MethodPost, "/v1/manager", map[string]any{"name": name}, "Sales manager hired.")
		},
	}
	manager.Flags().StringVar(&name, "name", "", "name (random when empty)")
	hire.AddCommand(advisor, tech, manager)
	return hire
}

func (a *app) newTrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train <advisor-id>",
		Short: "Send an advisor to training",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.send(cmd, http.MethodPost, cl.TrainPath(args[0]), nil, "Advisor trained.")
		},
	}
}

func (a *app) newStaffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "staff <id> <on|off>",
		Short: "Activate or bench a staff member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var active bool
			switch strings.ToLower(args[1]) {
			case "on", "active", "true":
				active = true
			case "off", "inactive", "false":
			default:
				return fmt.Errorf("state must be on or off")
			}
			return a.send(cmd, http.MethodPost, cl.StaffActivePath(args[0]), map[string]any{"active": active}, "Staff updated.")
		},
	}
}

func (a *app) packArgs(args []string) (string, int, error) {
	packType := a.settings.PackType
	size := a.settings.PackSize
	if len(args) > 0 {
		packType = strings.ToLower(args[0])
	}
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return "", 0, fmt.Errorf("invalid quantity %q", args[1])
		}
		size = v
	}
	if packType == "" {
		packType = string(game.PackNeutral)
	}
	if _, err := game.ParsePackType(packType); err != nil {
		return "", 0, err
	}
	if size <= 0 {
		size = 5
	}
	return packType, size, nil
}

func (a *app) newBuyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy [desirable|neutral|undesirable] [quantity]",
		Short: "Buy a pack of vehicles (all or nothing)",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			packType, qty, err := a.packArgs(args)
			if err != nil {
				return err
			}
			body := map[string]any{"type": packType, "quantity": qty}
			return a.send(cmd, http.MethodPost, "/v1/inventory/packs", body, fmt.Sprintf("Bought %d %s vehicles.", qty, packType))
		},
	}
}

func (a *app) newRestockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restock [desirable|neutral|undesirable] [quantity]",
		Short: "Buy as many vehicles as cash and lot space allow",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			packType, qty, err := a.packArgs(args)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			q := syncq.Command{
				Method:         http.MethodPost,
				Path:           "/v1/inventory/restock",
				Body:           map[string]any{"type": packType, "quantity": qty},
				IdempotencyKey: uuid.NewString(),
			}
			out, err := a.client().Command(ctx, q)
			if err != nil {
				return a.queueOnNetworkError(err, q)
			}
			printSuccess(fmt.Sprintf("Restocked %v of %v vehicles for $%s.", out["added"], out["requested"], money(asFloat(out["cash_spent"]))))
			return nil
		},
	}
}

func (a *app) newPriceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price <vehicle-id> <asking>",
		Short: "Set a vehicle's asking price",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			asking, err := strconv.ParseFloat(args[1], 64)
			if err != nil || asking <= 0 {
				return fmt.Errorf("invalid asking price %q", args[1])
			}
			return a.send(cmd, http.MethodPost, cl.PricePath(args[0]), map[string]any{"asking": asking}, "Price updated.")
		},
	}
}

func (a *app) newPricingCmd() *cobra.Command {
	var aging60, aging90 float64
	cmd := &cobra.Command{
		Use:   "pricing <aggressive|balanced|conservative|market>",
		Short: "Set the lot pricing policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := game.ParsePricingPolicy(strings.ToLower(args[0]))
			if err != nil {
				return err
			}
			body := map[string]any{"policy": string(policy)}
			if cmd.Flags().Changed("aging60") {
				body["aging_discount_60"] = aging60
			}
			if cmd.Flags().Changed("aging90") {
				body["aging_discount_90"] = aging90
			}
			return a.send(cmd, http.MethodPost, "/v1/pricing", body, fmt.Sprintf("Pricing policy set to %s.", policy))
		},
	}
	cmd.Flags().Float64Var(&aging60, "aging60", 0, "extra discount for units aged 60+ days (0-1)")
	cmd.Flags().Float64Var(&aging90, "aging90", 0, "extra discount for units aged 90+ days (0-1)")
	return cmd
}

func (a *app) newMarketingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "marketing <spend-per-day>",
		Short: "Set daily marketing spend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spend, err := strconv.ParseFloat(args[0], 64)
			if err != nil || spend < 0 {
				return fmt.Errorf("invalid spend %q", args[0])
			}
			return a.send(cmd, http.MethodPost, "/v1/marketing", map[string]any{"spend_per_day": spend}, fmt.Sprintf("Marketing set to $%s/day.", money(spend)))
		},
	}
}

func (a *app) newTuneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tune <json-patch | @file>",
		Short: "Patch simulation coefficients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := []byte(args[0])
			if strings.HasPrefix(args[0], "@") {
				b, err := os.ReadFile(strings.TrimPrefix(args[0], "@"))
				if err != nil {
					return err
				}
				raw = b
			}
			var patch map[string]any
			if err := json.Unmarshal(raw, &patch); err != nil {
				return fmt.Errorf("coefficient patch must be a JSON object: %w", err)
			}
			return a.send(cmd, http.MethodPost, "/v1/coefficients", patch, "Coefficients updated.")
		},
	}
}

func (a *app) newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay locally queued offline commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := a.queue()
			if err != nil {
				return err
			}
			pending, err := queue.Load()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			results, err := a.client().SyncReplay(ctx, pending)
			if err != nil {
				return err
			}

			done := make(map[string]bool, len(results))
			replayed := 0
			for _, r := range results {
				switch {
				case r.Status < 300:
					replayed++
					done[r.IdempotencyKey] = true
				case r.Status < 500:
					// rejected or already applied; retrying will not help
					done[r.IdempotencyKey] = true
					printError(fmt.Sprintf("Dropped %s: %d %s", r.IdempotencyKey, r.Status, strings.TrimSpace(string(r.Body))))
				default:
					printWarn(fmt.Sprintf("Kept %s: server error %d", r.IdempotencyKey, r.Status))
				}
			}
			if err := queue.Drop(done); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Sync complete: replayed=%d remaining=%d", replayed, len(pending)-len(done)))
			return nil
		},
	}
}

func (a *app) newConfigCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Local CLI settings",
	}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("api:       %s\n", a.apiBase)
			fmt.Printf("home:      %s\n", a.home)
			fmt.Printf("pack type: %s\n", a.settings.PackType)
			fmt.Printf("pack size: %d\n", a.settings.PackSize)
			return nil
		},
	})
	var packType string
	var packSize int
	set := &cobra.Command{
		Use:   "set",
		Short: "Save the API URL and pack defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.settings
			if cmd.Flags().Changed("api") {
				s.APIBaseURL = strings.TrimRight(a.apiBase, "/")
			}
			if packType != "" {
				if _, err := game.ParsePackType(packType); err != nil {
					return err
				}
				s.PackType = packType
			}
			if packSize > 0 {
				s.PackSize = packSize
			}
			if err := cl.SaveSettings(a.home, s); err != nil {
				return err
			}
			printSuccess("Settings saved.")
			return nil
		},
	}
	set.Flags().StringVar(&packType, "pack-type", "", "default pack type for buy and restock")
	set.Flags().IntVar(&packSize, "pack-size", 0, "default pack size for buy and restock")
	cfg.AddCommand(set, &cobra.Command{
		Use:   "reset",
		Short: "Delete saved settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearSettings(a.home); err != nil {
				return err
			}
			printSuccess("Settings cleared.")
			return nil
		},
	})
	return cfg
}

// send issues one write command. Network failures queue it for `dlr sync`.
func (a *app) send(cmd *cobra.Command, method, path string, body map[string]any, okMsg string) error {
	q := syncq.Command{
		Method:         method,
		Path:           path,
		Body:           body,
		IdempotencyKey: uuid.NewString(),
	}
	ctx, cancel := withTimeout(cmd)
	defer cancel()
	if _, err := a.client().Command(ctx, q); err != nil {
		return a.queueOnNetworkError(err, q)
	}
	printSuccess(okMsg)
	return nil
}

func (a *app) queue() (*syncq.Queue, error) {
	if a.home == "" {
		return nil, fmt.Errorf("no home directory for the offline queue; set DLR_HOME")
	}
	return syncq.Open(a.home)
}

func (a *app) queueOnNetworkError(err error, q syncq.Command) error {
	if err == nil {
		return nil
	}
	if cl.IsAPIError(err) {
		return err
	}
	queue, qerr := a.queue()
	if qerr == nil {
		qerr = queue.Push(q)
	}
	if qerr != nil {
		return fmt.Errorf("request failed and could not be queued (%v): %w", qerr, err)
	}
	printWarn(fmt.Sprintf("API unreachable; queued %s %s. Run `dlr sync` later.", q.Method, q.Path))
	return nil
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}
