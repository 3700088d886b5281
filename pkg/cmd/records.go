package cmd

import (
	contextPkg "context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/imap-mag/magvault/pkg/configs"
	ctxPkg "github.com/imap-mag/magvault/pkg/context"
	"github.com/imap-mag/magvault/pkg/internal/model"
	"github.com/imap-mag/magvault/pkg/internal/service"
	"github.com/imap-mag/magvault/pkg/internal/storage"
	"github.com/imap-mag/magvault/pkg/internal/types"
)

var (
	recordParams types.KeyParams

	publishFile     string
	publishSoftware string
	publishMeta     string
	publishHold     bool

	recordVersion int
	deleteReason  string

	recordCmd = &cobra.Command{
		Use:   "record",
		Short: "Publish and query datastore records",
	}

	publishCmd = &cobra.Command{
		Use:   "publish",
		Short: "publish a work file as the next version of its key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, mgr, err := newServiceContext()
			if err != nil {
				return err
			}
			defer func() { _ = mgr.Close() }()

			k, err := recordParams.Key()
			if err != nil {
				return err
			}

			checksum, err := fileChecksum(publishFile)
			if err != nil {
				return err
			}

			svc := service.NewRecordService(ctx)

			f, republished, err := svc.Publish(ctx, k, publishFile, checksum, service.PublishOptions{
				SoftwareVersion: publishSoftware,
				Metadata:        publishMeta,
				Quarantine:      publishHold,
				Source:          "cli",
			})
			if err != nil {
				return err
			}

			if republished {
				fmt.Fprintln(cmd.OutOrStdout(), "content already published, returning existing version")
			}

			return printRecord(cmd, f)
		},
	}

	latestCmd = &cobra.Command{
		Use:   "latest",
		Short: "show the latest active version of a key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, mgr, err := newServiceContext()
			if err != nil {
				return err
			}
			defer func() { _ = mgr.Close() }()

			k, err := recordParams.Key()
			if err != nil {
				return err
			}

			f, err := service.NewRecordService(ctx).Latest(ctx, k)
			if err != nil {
				return err
			}

			return printRecord(cmd, f)
		},
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "list every version of a key, including soft deleted ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, mgr, err := newServiceContext()
			if err != nil {
				return err
			}
			defer func() { _ = mgr.Close() }()

			k, err := recordParams.Key()
			if err != nil {
				return err
			}

			files, err := service.NewRecordService(ctx).History(ctx, k)
			if err != nil {
				return err
			}

			infos := make([]types.RecordInfo, 0, len(files))
			for i := range files {
				infos = append(infos, types.NewRecordInfo(&files[i]))
			}

			b, err := json.MarshalIndent(infos, "", "  ")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}

	recordDeleteCmd = &cobra.Command{
		Use:   "delete",
		Short: "soft delete one version of a key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, mgr, err := newServiceContext()
			if err != nil {
				return err
			}
			defer func() { _ = mgr.Close() }()

			k, err := recordParams.Key()
			if err != nil {
				return err
			}

			f, err := service.NewRecordService(ctx).SoftDelete(ctx, k, recordVersion, deleteReason)
			if err != nil {
				return err
			}

			return printRecord(cmd, f)
		},
	}

	recordUndeleteCmd = &cobra.Command{
		Use:   "undelete",
		Short: "restore a soft deleted version of a key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, mgr, err := newServiceContext()
			if err != nil {
				return err
			}
			defer func() { _ = mgr.Close() }()

			k, err := recordParams.Key()
			if err != nil {
				return err
			}

			f, err := service.NewRecordService(ctx).Undelete(ctx, k, recordVersion)
			if err != nil {
				return err
			}

			return printRecord(cmd, f)
		},
	}
)

// newServiceContext loads config, connects storage and returns a context
// carrying the storage manager, ready for building services.
func newServiceContext() (contextPkg.Context, *storage.Manager, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, nil, err
	}

	ctx := contextPkg.Background()

	mgr, err := storage.Init(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err := mgr.GetDBClient().GetDB().AutoMigrate(&model.File{}); err != nil {
		_ = mgr.Close()

		return nil, nil, fmt.Errorf("migrate index schema: %w", err)
	}

	return ctxPkg.WithStorageManager(ctx, mgr), mgr, nil
}

// fileChecksum returns the hex SHA-256 of a file on disk.
func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func printRecord(cmd *cobra.Command, f *model.File) error {
	b, err := json.MarshalIndent(types.NewRecordInfo(f), "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(b))

	return nil
}

// addKeyFlags binds the logical key flags shared by the record commands.
func addKeyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&recordParams.Mission, "mission", "", "mission token, for example imap")
	cmd.Flags().StringVar(&recordParams.Instrument, "instrument", "", "instrument token, for example mag")
	cmd.Flags().StringVar(&recordParams.Level, "level", "", "processing level, for example l1b")
	cmd.Flags().StringVar(&recordParams.Descriptor, "descriptor", "", "product descriptor")
	cmd.Flags().StringVar(&recordParams.Date, "date", "", "content date as yyyymmdd")
	cmd.Flags().StringVar(&recordParams.Mode, "mode", "", "optional acquisition mode")
	cmd.Flags().StringVar(&recordParams.Extension, "ext", "", "file extension without the dot")
}

// registerRecordCommands registers the record commands.
func registerRecordCommands() {
	for _, c := range []*cobra.Command{publishCmd, latestCmd, historyCmd, recordDeleteCmd, recordUndeleteCmd} {
		addKeyFlags(c)
		recordCmd.AddCommand(c)
	}

	publishCmd.Flags().StringVar(&publishFile, "file", "", "path of the work file to publish")
	publishCmd.Flags().StringVar(&publishSoftware, "software-version", "", "version of the producing software")
	publishCmd.Flags().StringVar(&publishMeta, "metadata", "", "extra metadata stored with the record")
	publishCmd.Flags().BoolVar(&publishHold, "quarantine", false, "publish in quarantined status")
	_ = publishCmd.MarkFlagRequired("file")

	recordDeleteCmd.Flags().IntVar(&recordVersion, "version", 0, "version number to delete")
	recordDeleteCmd.Flags().StringVar(&deleteReason, "reason", "", "reason recorded with the deletion")
	recordUndeleteCmd.Flags().IntVar(&recordVersion, "version", 0, "version number to restore")

	rootCmd.AddCommand(recordCmd)
}
