package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bzrkr/raspisanie/config"
	"github.com/Bzrkr/raspisanie/internal/service"
	applogger "github.com/Bzrkr/raspisanie/pkg/logger"
)

// ServiceFactory 根据配置构建课表服务，返回的 cleanup 释放连接
type ServiceFactory func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.ScheduleService, func(), error)

type rootOptions struct {
	configPath string
	date       string
	newService ServiceFactory
}

// NewRootCommand 创建 raspisanie 命令行入口
func NewRootCommand() *cobra.Command {
	return newRootCommand(NewScheduleService)
}

func newRootCommand(factory ServiceFactory) *cobra.Command {
	opts := &rootOptions{newService: factory}

	root := &cobra.Command{
		Use:   "raspisanie",
		Short: "BSUIR 教室课表查询",
		Long: `raspisanie 从 IIS 拉取全部教师课表，
按日期推算教学周并列出配置教室当天的课程。`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")
	root.PersistentFlags().StringVarP(&opts.date, "date", "d", "", "查询日期 YYYY-MM-DD，默认为今天")

	root.AddCommand(
		newPrintCommand(opts),
		newWeekCommand(opts),
		newShareCommand(opts),
		newServeCommand(opts),
	)
	return root
}

// Execute 运行命令行，出错时返回非 nil
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// session 单次命令执行所需的服务与查询日期
type session struct {
	svc     service.ScheduleService
	date    time.Time
	out     io.Writer
	cleanup func()
}

// open 加载配置、构建服务并完成首次数据加载
func (o *rootOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, cleanup, err := o.newService(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	release := func() {
		cleanup()
		_ = logger.Sync()
	}

	date, err := svc.ParseDate(o.date)
	if err != nil {
		release()
		return nil, fmt.Errorf("日期格式应为 YYYY-MM-DD: %w", err)
	}

	if _, err := svc.Reload(ctx); err != nil {
		release()
		return nil, fmt.Errorf("加载课表失败: %w", err)
	}

	return &session{svc: svc, date: date, out: cmd.OutOrStdout(), cleanup: release}, nil
}
