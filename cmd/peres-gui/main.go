// Package main provides the peres GUI application.
package main

import (
	"bytes"
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/ZacharyZcR/peres/internal/cli"
	"github.com/ZacharyZcR/peres/internal/resource"
)

func main() {
	myApp := app.New()
	myWindow := myApp.NewWindow("peres - PE资源查看与提取工具")
	myWindow.Resize(fyne.NewSize(900, 700))

	// File path
	filePathEntry := widget.NewEntry()
	filePathEntry.SetPlaceHolder("选择PE文件...")

	// Report output
	output := widget.NewMultiLineEntry()
	output.SetPlaceHolder("分析结果将显示在这里...")
	output.TextStyle = fyne.TextStyle{Monospace: true}
	output.Disable()

	statusLabel := widget.NewLabel("就绪")

	outputDirEntry := widget.NewEntry()
	outputDirEntry.SetText(resource.DefaultOutputDir)

	namedCheck := widget.NewCheck("以完整路径命名", nil)
	sniffCheck := widget.NewCheck("识别文件类型", nil)
	stringsCheck := widget.NewCheck("版本字符串", nil)
	entropyCheck := widget.NewCheck("显示熵值", nil)

	fileButton := widget.NewButton("选择文件", func() {
		dialog.ShowFileOpen(func(file fyne.URIReadCloser, err error) {
			if err != nil || file == nil {
				return
			}
			defer func() { _ = file.Close() }()
			filePathEntry.SetText(file.URI().Path())
		}, myWindow)
	})

	// runAction fills the options shared by every button, lets set choose
	// the action and shows the report.
	runAction := func(status string, set func(o *cli.Options)) func() {
		return func() {
			if filePathEntry.Text == "" {
				dialog.ShowError(fmt.Errorf("请先选择PE文件"), myWindow)
				return
			}

			o := &cli.Options{
				Format:         string(cli.FormatText),
				OutputDir:      outputDirEntry.Text,
				Sniff:          sniffCheck.Checked,
				VersionStrings: stringsCheck.Checked,
				Entropy:        entropyCheck.Checked,
				NoColor:        true,
			}
			set(o)

			statusLabel.SetText(status)
			path := filePathEntry.Text
			go func() {
				result, err := report(path, o)
				fyne.Do(func() {
					if err != nil {
						dialog.ShowError(err, myWindow)
						statusLabel.SetText("操作失败")
						return
					}
					output.SetText(result)
					statusLabel.SetText("完成")
				})
			}()
		}
	}

	infoButton := widget.NewButton("资源信息", runAction("正在读取资源目录...", func(o *cli.Options) { o.Info = true }))
	listButton := widget.NewButton("资源列表", runAction("正在列出资源...", func(o *cli.Options) { o.List = true }))
	statsButton := widget.NewButton("资源统计", runAction("正在统计...", func(o *cli.Options) { o.Statistics = true }))
	versionButton := widget.NewButton("文件版本", runAction("正在读取版本...", func(o *cli.Options) { o.FileVersion = true }))
	extractButton := widget.NewButton("提取资源", runAction("正在提取资源...", func(o *cli.Options) {
		o.Extract = true
		o.NamedExtract = namedCheck.Checked
	}))
	allButton := widget.NewButton("全部", runAction("正在分析...", func(o *cli.Options) {
		o.All = true
		o.NamedExtract = namedCheck.Checked
	}))

	// Layout
	fileBox := container.NewBorder(nil, nil, nil, fileButton, filePathEntry)

	actionBox := container.NewGridWithColumns(6,
		infoButton, listButton, statsButton, versionButton, extractButton, allButton,
	)

	optionBox := container.NewVBox(
		container.NewBorder(nil, nil, widget.NewLabel("提取目录:"), nil, outputDirEntry),
		container.NewGridWithColumns(4, namedCheck, sniffCheck, stringsCheck, entropyCheck),
	)

	mainContent := container.NewBorder(
		container.NewVBox(
			widget.NewLabel("PE文件路径:"),
			fileBox,
			widget.NewSeparator(),
			optionBox,
			actionBox,
		),
		container.NewVBox(
			widget.NewSeparator(),
			statusLabel,
		),
		nil,
		nil,
		container.NewVScroll(output),
	)

	myWindow.SetContent(mainContent)
	myWindow.ShowAndRun()
}

// report runs one action and returns its text report followed by any
// diagnostics.
func report(path string, o *cli.Options) (string, error) {
	var stdout, stderr bytes.Buffer
	if err := cli.Run(path, o, &stdout, &stderr); err != nil {
		return "", err
	}

	var result strings.Builder
	result.Write(stdout.Bytes())
	if stderr.Len() > 0 {
		result.WriteString("\n警告:\n")
		result.Write(stderr.Bytes())
	}
	return result.String(), nil
}
