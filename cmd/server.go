package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	dbt "wallet/db/db"
	"wallet/db/mem"
	"wallet/db/pg"
	applog "wallet/logger"
	"wallet/mq/gcppubsub"
	"wallet/mq/goch"
	"wallet/mq/mq"
	"wallet/mq/rabbit"
	"wallet/store"
	"wallet/web"
)

const (
	dbModeMemory   = "memory"
	dbModePostgres = "postgres"

	goChanBufferSize = 64
)

func serverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  `This command starts the web server and the message queue consumers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("dev") {
				cfg.IsDev, _ = cmd.Flags().GetBool("dev")
			}
			if cmd.Flags().Changed("port") {
				cfg.Port, _ = cmd.Flags().GetString("port")
			}
			if cmd.Flags().Changed("mq") {
				cfg.MqMode, _ = cmd.Flags().GetString("mq")
			}
			if cmd.Flags().Changed("db") {
				cfg.DBMode, _ = cmd.Flags().GetString("db")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}

	cmd.Flags().Bool("dev", true, "Run in development mode")
	cmd.Flags().String("port", "8080", "Port to run the web server on")
	cmd.Flags().String("mq", string(mq.ModeGoChan), "Message queue mode (go_chan, rabbitmq, gcp_pub_sub)")
	cmd.Flags().String("db", dbModeMemory, "Snapshot storage (memory, postgres)")

	return cmd
}

func serve(ctx context.Context) error {
	snapDB, closeDB, err := openSnapshotDB()
	if err != nil {
		return err
	}
	defer closeDB()

	mode, err := mq.ParseMode(cfg.MqMode)
	if err != nil {
		return err
	}
	queues, err := openMessageQueues(ctx, mode)
	if err != nil {
		return err
	}
	defer queues.Close()

	registry := store.NewRegistry(snapDB, nil, nil)
	defer registry.Close()
	if err := registry.RestoreAll(); err != nil {
		return err
	}
	registry.ConsumeFeatureFlags(ctx, queues.GetFeatureFlagMessageQueue())
	registry.ConsumeActions(ctx, queues.GetActionMessageQueue())

	applog.Root.Info().Str("mq", string(mode)).Str("db", cfg.DBMode).Msg("starting server")
	return web.Serve(ctx, web.ServiceConfig{
		IsDev:      cfg.IsDev,
		Port:       cfg.Port,
		Registry:   registry,
		SnapshotDB: snapDB,
		MQ:         queues,
	})
}

func openSnapshotDB() (dbt.SnapshotDBWrapper, func(), error) {
	switch cfg.DBMode {
	case dbModeMemory:
		return mem.NewInMemorySnapshotDBWrapper(), func() {}, nil
	case dbModePostgres:
		gormDB, err := pg.InitPostgresGORM(pg.CreateDSN(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, err
		}
		return pg.NewGORMSnapshotDBWrapper(gormDB), func() { pg.CloseGORM(gormDB) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown db mode %q", cfg.DBMode)
	}
}

func openMessageQueues(ctx context.Context, mode mq.Mode) (mq.SendMessageQueueWrapper, error) {
	switch mode {
	case mq.ModeRabbitMQ:
		conn, err := rabbit.NewRabbitConnection(cfg.RabbitMQURL)
		if err != nil {
			return nil, err
		}
		wrapper, err := rabbit.NewRabbitSendMessageQueueWrapper(conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return wrapper, nil
	case mq.ModeGCPPubSub:
		projectID, err := gcppubsub.GetGCPProjectID(cfg.GCPProjectID)
		if err != nil {
			return nil, err
		}
		return gcppubsub.NewGCPSendMessageQueueWrapper(ctx, projectID)
	default:
		return goch.NewGoChanSendMessageQueueWrapper(goChanBufferSize), nil
	}
}
