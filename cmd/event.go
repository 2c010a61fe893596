package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/it-helpdesk/internal/realtime"
	"github.com/frahmantamala/it-helpdesk/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Realtime refresh commands",
	Long:  `Inspect and trigger the refresh signals pushed to connected dashboards`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [tickets|users]",
	Short: "Broadcast a refresh signal",
	Long:  `Publish a refresh signal on the Redis relay so every running server pushes it to its WebSocket clients`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishRefresh(cmd.Context(), args[0])
	},
}

var publishTimeout time.Duration

func publishRefresh(ctx context.Context, name string) error {
	topic, ok := realtime.ParseTopic(name)
	if !ok {
		return fmt.Errorf("unknown topic %q, expected tickets or users", name)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Realtime.RedisAddr == "" {
		return fmt.Errorf("realtime.redis_addr is not configured, no relay to publish on")
	}

	lg := logger.LoggerWrapper()
	client := realtime.NewRedisClient(cfg.Realtime, lg)
	defer client.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	relay := realtime.NewRedisRelay(client, cfg.Realtime.Channel, lg)
	if err := relay.Publish(ctx, topic); err != nil {
		return fmt.Errorf("failed to publish refresh: %w", err)
	}

	lg.Info("refresh signal published", "topic", topic, "channel", cfg.Realtime.Channel)
	return nil
}

func init() {
	publishEventCmd.Flags().DurationVar(&publishTimeout, "timeout", 5*time.Second, "publish timeout")

	eventCmd.AddCommand(publishEventCmd)
}
