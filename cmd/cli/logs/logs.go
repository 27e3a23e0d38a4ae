package logs

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/campuslend/lendhub/cmd/cli/config"
	"github.com/campuslend/lendhub/cmd/cli/output"
	"github.com/campuslend/lendhub/cmd/cli/root"
	"github.com/campuslend/lendhub/cmd/cli/session"
	"github.com/spf13/cobra"
)

func init() {
	root.GetRoot().AddCommand(listLogsCmd())
}

func listLogsCmd() *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List request transaction log entries (super only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := session.LoadToken()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			req, _ := http.NewRequest("GET", config.APIURL()+"/v1/logs?period="+period, nil)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				b, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("API error: %s", string(b))
			}

			var entries []struct {
				ID        int       `json:"id"`
				Type      string    `json:"type"`
				ItemName  string    `json:"item_name"`
				UserName  string    `json:"user_name"`
				Timestamp time.Time `json:"timestamp"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []interface{}{
					e.ID, e.Type, e.ItemName, e.UserName, e.Timestamp.Format(time.RFC3339),
				})
			}
			output.RenderTable([]string{"ID", "Type", "Item", "User", "Timestamp"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&period, "period", "weekly", "weekly, monthly, or yearly")
	return cmd
}
