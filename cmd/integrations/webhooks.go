package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	integrations "github.com/jima/integrations"
)

func newWebhooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhooks",
		Short: "Outbound webhooks",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List webhooks",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a := appFrom(cmd)
				items, err := a.svc.WebhookIntegrations(cmd.Context())
				if err != nil {
					return printError(a.out, err)
				}
				rows := make([]map[string]any, 0, len(items))
				for _, wi := range items {
					rows = append(rows, map[string]any{
						"webhook":      wi,
						"eventSummary": integrations.FormatWebhookEvents(wi.Events),
					})
				}
				return printResult(a.out, rows, nil)
			},
		},
		&cobra.Command{
			Use:   "get ID",
			Short: "Show a webhook",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				wi, err := a.svc.WebhookIntegration(cmd.Context(), args[0])
				return printResult(a.out, wi, err)
			},
		},
		newWebhookCreateCmd(),
		newWebhookUpdateCmd(),
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a webhook",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				err := a.svc.DeleteWebhookIntegration(cmd.Context(), args[0])
				return printResult(a.out, map[string]string{"deleted": args[0]}, err)
			},
		},
		&cobra.Command{
			Use:   "test ID",
			Short: "Send a test event",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				res, err := a.svc.TestWebhook(cmd.Context(), args[0])
				return printResult(a.out, res, err)
			},
		},
	)
	return cmd
}

type webhookFlags struct {
	name        string
	url         string
	events      []string
	secret      string
	headers     []string
	active      bool
	retryFailed bool
	maxRetries  int
}

func (f *webhookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "webhook name")
	cmd.Flags().StringVar(&f.url, "url", "", "target URL (http or https)")
	cmd.Flags().StringSliceVar(&f.events, "events", nil, "events to subscribe to: "+strings.Join(integrations.WebhookEvents, ", "))
	cmd.Flags().StringVar(&f.secret, "secret", "", "signing secret (write-only)")
	cmd.Flags().StringArrayVar(&f.headers, "header", nil, "custom header as Name: value (repeatable)")
	cmd.Flags().BoolVar(&f.active, "active", true, "whether the webhook is active")
	cmd.Flags().BoolVar(&f.retryFailed, "retry-failed", true, "retry failed deliveries")
	cmd.Flags().IntVar(&f.maxRetries, "max-retries", integrations.DefaultMaxRetries, "retry attempts (0-10)")
}

func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("header %q must be Name: value", h)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}

func newWebhookCreateCmd() *cobra.Command {
	var f webhookFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			headers, err := parseHeaders(f.headers)
			if err != nil {
				return printError(a.out, err)
			}

			form := integrations.NewWebhookForm()
			form.Name = f.name
			form.WebhookURL = f.url
			form.Events = f.events
			form.SecretKey = f.secret
			form.Headers = headers
			form.IsActive = f.active
			form.RetryFailed = f.retryFailed
			form.MaxRetries = f.maxRetries

			wi, err := a.svc.CreateWebhookIntegration(cmd.Context(), form)
			return printResult(a.out, wi, err)
		},
	}
	f.register(cmd)
	return cmd
}

func newWebhookUpdateCmd() *cobra.Command {
	var f webhookFlags

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			headers, err := parseHeaders(f.headers)
			if err != nil {
				return printError(a.out, err)
			}

			var patch integrations.WebhookPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &f.name
			}
			if flags.Changed("url") {
				patch.WebhookURL = &f.url
			}
			if flags.Changed("events") {
				patch.Events = f.events
				if patch.Events == nil {
					patch.Events = []string{}
				}
			}
			if flags.Changed("secret") {
				patch.SecretKey = &f.secret
			}
			if flags.Changed("active") {
				patch.IsActive = &f.active
			}
			if flags.Changed("retry-failed") {
				patch.RetryFailed = &f.retryFailed
			}
			if flags.Changed("max-retries") {
				patch.MaxRetries = &f.maxRetries
			}
			patch.Headers = headers

			wi, err := a.svc.UpdateWebhookIntegration(cmd.Context(), args[0], patch)
			return printResult(a.out, wi, err)
		},
	}
	f.register(cmd)
	return cmd
}
