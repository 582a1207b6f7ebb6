package cli

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/abelzeko/riverflow/internal/api"
)

func newBotCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve the interactive search to one Telegram chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Telegram.BotToken == "" {
				return errors.New("TELEGRAM_BOT_TOKEN is not set")
			}
			if a.cfg.Telegram.ChatID == 0 {
				return errors.New("TELEGRAM_CHAT_ID is not set")
			}

			uc, closeRepo, err := a.newUseCase()
			if err != nil {
				return err
			}
			defer closeRepo()

			stations, err := uc.LoadStations(cmd.Context())
			if err != nil {
				return err
			}

			bot, err := tgbotapi.NewBotAPI(a.cfg.Telegram.BotToken)
			if err != nil {
				return fmt.Errorf("failed to create bot: %w", err)
			}
			a.logger.Info("authorized on Telegram account", "user", bot.Self.UserName, "chat_id", a.cfg.Telegram.ChatID)

			u := tgbotapi.NewUpdate(0)
			u.Timeout = 60
			updates := bot.GetUpdatesChan(u)

			// Stop long polling once the command is cancelled.
			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				bot.StopReceivingUpdates()
			}()

			conversation := api.NewTelegramConversation(bot, a.cfg.Telegram.ChatID, updates, a.logger)
			return api.NewTelegramBot(conversation, uc, stations, a.logger).Start(ctx)
		},
	}
}
