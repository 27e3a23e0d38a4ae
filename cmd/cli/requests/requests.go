package requests

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
	requestsCmd := &cobra.Command{
		Use:   "requests",
		Short: "Handle lending requests",
	}

	requestsCmd.AddCommand(
		listRequestsCmd(),
		transitionCmd("approve", "Approve a pending request"),
		transitionCmd("reject", "Reject a pending request"),
		transitionCmd("return", "Mark an approved request as returned"),
	)

	root.GetRoot().AddCommand(requestsCmd)
}

// ==========================
// LIST
// ==========================
func listRequestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := session.LoadToken()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			req, _ := http.NewRequest("GET", config.APIURL()+"/v1/requests", nil)
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

			var requests []struct {
				ID        int    `json:"id"`
				ItemName  string `json:"item_name"`
				Status    string `json:"status"`
				Requester struct {
					Name      string `json:"requester_name"`
					ClassName string `json:"class_name"`
				} `json:"requester"`
				CreatedAt time.Time `json:"created_at"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&requests); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(requests))
			for _, r := range requests {
				rows = append(rows, []interface{}{
					r.ID, r.ItemName, r.Requester.Name, r.Requester.ClassName,
					r.Status, r.CreatedAt.Format(time.RFC3339),
				})
			}
			output.RenderTable([]string{"ID", "Item", "Requester", "Class", "Status", "Created"}, rows)
			return nil
		},
	}
}

// ==========================
// TRANSITIONS
// ==========================
func transitionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := session.LoadToken()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			url := config.APIURL() + "/v1/requests/" + args[0] + "/" + action
			req, _ := http.NewRequest("POST", url, nil)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			b, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("API error: %s", string(b))
			}
			fmt.Println(string(b))
			return nil
		},
	}
}
