package items

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/campuslend/lendhub/cmd/cli/config"
	"github.com/campuslend/lendhub/cmd/cli/output"
	"github.com/campuslend/lendhub/cmd/cli/root"
	"github.com/campuslend/lendhub/cmd/cli/session"
	"github.com/spf13/cobra"
)

func init() {
	itemsCmd := &cobra.Command{
		Use:   "items",
		Short: "Manage lendable items",
	}

	itemsCmd.AddCommand(
		listItemsCmd(),
		createItemCmd(),
		deleteItemCmd(),
	)

	root.GetRoot().AddCommand(itemsCmd)
}

// ==========================
// LIST
// ==========================
func listItemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active items",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(config.APIURL() + "/v1/items")
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				b, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("API error: %s", string(b))
			}

			var items []struct {
				ID       int    `json:"id"`
				Name     string `json:"name"`
				Quantity int    `json:"quantity"`
				Active   bool   `json:"active"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(items))
			for _, i := range items {
				rows = append(rows, []interface{}{i.ID, i.Name, i.Quantity, i.Active})
			}
			output.RenderTable([]string{"ID", "Name", "Quantity", "Active"}, rows)
			return nil
		},
	}
}

// ==========================
// CREATE
// ==========================
func createItemCmd() *cobra.Command {
	var name, description, imageURL string
	var quantity int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item (super only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := session.LoadToken()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			payload := map[string]any{
				"name":        name,
				"description": description,
				"image_url":   imageURL,
				"quantity":    quantity,
			}
			body, _ := json.Marshal(payload)

			req, _ := http.NewRequest("POST", config.APIURL()+"/v1/items", bytes.NewBuffer(body))
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			b, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("API error: %s", string(b))
			}
			fmt.Println(string(b))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "item name")
	cmd.Flags().StringVar(&description, "description", "", "item description")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "item image URL")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "available units")
	cmd.MarkFlagRequired("name")
	return cmd
}

// ==========================
// DELETE (soft)
// ==========================
func deleteItemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft-delete an item (super only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := session.LoadToken()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			req, _ := http.NewRequest("DELETE", config.APIURL()+"/v1/items/"+args[0], nil)
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
