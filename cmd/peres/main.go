// Package main provides the peres CLI tool.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ZacharyZcR/peres/internal/cli"
	"github.com/ZacharyZcR/peres/internal/resource"
)

const version = "0.1.0"

var opts cli.Options

var rootCmd = &cobra.Command{
	Use:   "peres [选项] <文件>",
	Short: "显示PE文件资源节信息并提取资源",
	Long: `peres 分析PE文件的资源节：显示资源目录树、统计信息、资源列表和文件版本，
并可将资源按类型提取到目录中。`,
	Version:       version,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// -X is an extraction of its own.
		if opts.NamedExtract {
			opts.Extract = true
		}
		return cli.Run(args[0], &opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	f := rootCmd.Flags()
	f.BoolVarP(&opts.All, "all", "a", false, "显示全部信息、统计并提取资源")
	f.StringVarP(&opts.Format, "format", "f", string(cli.FormatText), "输出格式 (text|csv|xml|json)")
	f.BoolVarP(&opts.Info, "info", "i", false, "显示资源目录树")
	f.BoolVarP(&opts.List, "list", "l", false, "列出所有资源")
	f.BoolVarP(&opts.Statistics, "statistics", "s", false, "显示资源统计")
	f.BoolVarP(&opts.Extract, "extract", "x", false, "按类型提取资源")
	f.BoolVarP(&opts.NamedExtract, "named-extract", "X", false, "提取资源并以完整路径命名")
	f.BoolVarP(&opts.FileVersion, "file-version", "v", false, "显示文件版本和产品版本")
	f.BoolP("version", "V", false, "显示程序版本")

	f.StringVarP(&opts.OutputDir, "output-dir", "o", resource.DefaultOutputDir, "资源提取目录")
	f.BoolVar(&opts.Sniff, "sniff", false, "根据内容识别通用资源的扩展名")
	f.BoolVar(&opts.VersionStrings, "version-strings", false, "同时显示版本字符串表")
	f.BoolVar(&opts.Entropy, "entropy", false, "在资源列表中显示熵值")
	f.BoolVar(&opts.NoColor, "no-color", false, "禁用彩色输出")
	f.BoolVar(&opts.Debug, "debug", false, "输出调试日志")

	rootCmd.SetVersionTemplate("peres {{.Version}}\n")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		red := color.New(color.FgRed, color.Bold)
		_, _ = red.Fprintf(os.Stderr, "\n错误: %v\n\n", err)
		os.Exit(1)
	}
}
