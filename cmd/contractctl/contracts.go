package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	contractsCmd := &cobra.Command{Use: "contracts", Short: "Contract operations"}

	// upload
	var userFlag, titleFlag, fileFlag string
	uploadCmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a contract's extracted text from a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" || titleFlag == "" || fileFlag == "" {
				return fmt.Errorf("--user, --title and --file required")
			}
			text, err := os.ReadFile(fileFlag)
			if err != nil {
				return err
			}
			payload := map[string]interface{}{"title": titleFlag, "text": string(text)}
			data, err := check(newClient().R().SetBody(payload).
				Post("/v0/users/" + userFlag + "/contracts"))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	uploadCmd.Flags().StringVarP(&userFlag, "user", "u", "", "User ID (required)")
	uploadCmd.Flags().StringVarP(&titleFlag, "title", "t", "", "Contract title (required)")
	uploadCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Path to extracted contract text (required)")
	contractsCmd.AddCommand(uploadCmd)

	// query
	var qUser, qContract, qText string
	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Ask a question about a contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			if qUser == "" || qContract == "" || qText == "" {
				return fmt.Errorf("--user, --contract and --question required")
			}
			payload := map[string]interface{}{"question": qText}
			data, err := check(newClient().R().SetBody(payload).
				Post("/v0/users/" + qUser + "/contracts/" + qContract + "/query"))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	queryCmd.Flags().StringVarP(&qUser, "user", "u", "", "User ID (required)")
	queryCmd.Flags().StringVarP(&qContract, "contract", "c", "", "Contract ID (required)")
	queryCmd.Flags().StringVarP(&qText, "question", "q", "", "Question text (required)")
	_ = queryCmd.MarkFlagRequired("question")
	contractsCmd.AddCommand(queryCmd)

	// messages
	var mUser, mContract string
	var mLimit int
	messagesCmd := &cobra.Command{
		Use:   "messages",
		Short: "List recent chat history for a contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			if mUser == "" || mContract == "" {
				return fmt.Errorf("--user and --contract required")
			}
			req := newClient().R()
			if mLimit > 0 {
				req.SetQueryParam("limit", fmt.Sprintf("%d", mLimit))
			}
			data, err := check(req.Get("/v0/users/" + mUser + "/contracts/" + mContract + "/messages"))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	messagesCmd.Flags().StringVarP(&mUser, "user", "u", "", "User ID (required)")
	messagesCmd.Flags().StringVarP(&mContract, "contract", "c", "", "Contract ID (required)")
	messagesCmd.Flags().IntVarP(&mLimit, "limit", "l", 0, "Max messages to return")
	contractsCmd.AddCommand(messagesCmd)

	rootCmd.AddCommand(contractsCmd)
}
