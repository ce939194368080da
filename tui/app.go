package tui

import (
	"context"
	"os"

	"codeberg.org/tslocum/cview"
	"github.com/riadafridishibly/nmremover/config"
	"github.com/riadafridishibly/nmremover/session"
	"github.com/sirupsen/logrus"
)

const (
	panelWelcome  = "welcome"
	panelList     = "list"
	panelHelp     = "help"
	panelDetail   = "detail"
	panelConfirm  = "confirm"
	panelDeleting = "deleting"
)

type App struct {
	app  *cview.Application
	ctrl *session.Controller
	cfg  *config.Config
	log  logrus.FieldLogger

	header *cview.TextView
	footer *cview.TextView
	panels *cview.Panels

	logo   *cview.TextView
	input  *cview.InputField
	notice *cview.TextView
	table  *cview.Table

	helpModal     *cview.Modal
	detailModal   *cview.Modal
	confirmModal  *cview.Modal
	deletingModal *cview.Modal

	uiUpdates chan func()

	// Path scanned as soon as the UI starts, empty to wait for input
	initialPath string

	userHomeDir  string
	themeName    string
	currentTheme Theme
}

func NewApp(ctrl *session.Controller, cfg *config.Config, log logrus.FieldLogger, initialPath string) *App {
	themeName := cfg.Theme
	theme, ok := themes[themeName]
	if !ok {
		log.WithField("theme", themeName).Warn("unknown theme, falling back to default")
		themeName = defaultThemeName
		theme = themes[themeName]
	}

	a := &App{
		app:          cview.NewApplication(),
		ctrl:         ctrl,
		cfg:          cfg,
		log:          log,
		header:       cview.NewTextView(),
		footer:       cview.NewTextView(),
		panels:       cview.NewPanels(),
		logo:         cview.NewTextView(),
		input:        cview.NewInputField(),
		notice:       cview.NewTextView(),
		table:        cview.NewTable(),
		helpModal:    cview.NewModal(),
		detailModal:  cview.NewModal(),
		confirmModal: cview.NewModal(),

		deletingModal: cview.NewModal(),
		uiUpdates:     make(chan func(), 128),
		initialPath:   initialPath,
		themeName:     themeName,
		currentTheme:  theme,
	}

	if home, err := os.UserHomeDir(); err == nil {
		a.userHomeDir = home
	} else {
		log.WithError(err).Warn("could not resolve home directory")
	}

	a.header.SetDynamicColors(true)
	a.header.SetTextAlign(cview.AlignCenter)
	a.footer.SetDynamicColors(true)
	a.footer.SetTextAlign(cview.AlignCenter)

	a.logo.SetDynamicColors(true)
	a.logo.SetTextAlign(cview.AlignCenter)
	a.notice.SetDynamicColors(true)
	a.notice.SetTextAlign(cview.AlignCenter)

	a.input.SetLabel(" Enter path to scan: ")
	a.input.SetPlaceholder("~/Projects")
	a.input.SetText(initialPath)
	a.input.SetDoneFunc(a.handlePathSubmit)

	a.table.SetBorder(false)
	a.table.SetBorders(false)
	a.table.SetSelectable(true, false)
	a.table.SetSeparator(' ')

	a.helpModal.SetText(helpText)
	a.helpModal.AddButtons([]string{"Close"})
	a.helpModal.SetDoneFunc(func(_ int, _ string) {
		a.dispatch(session.ActionNone)
	})

	a.detailModal.AddButtons([]string{"Close"})
	a.detailModal.SetDoneFunc(func(_ int, _ string) {
		a.dispatch(session.ActionNone)
	})

	a.confirmModal.AddButtons([]string{"Delete", "Cancel"})
	a.confirmModal.SetDoneFunc(func(_ int, buttonLabel string) {
		switch buttonLabel {
		case "Delete":
			a.dispatch(session.ActionConfirm)
		default:
			a.dispatch(session.ActionCancel)
		}
	})

	welcome := cview.NewFlex()
	welcome.SetDirection(cview.FlexRow)
	welcome.AddItem(cview.NewBox(), 0, 1, false)
	welcome.AddItem(a.logo, logoHeight, 0, false)
	welcome.AddItem(a.input, 1, 0, true)
	welcome.AddItem(a.notice, 3, 0, false)
	welcome.AddItem(cview.NewBox(), 0, 1, false)

	a.panels.AddPanel(panelWelcome, welcome, true, true)
	a.panels.AddPanel(panelList, a.table, true, false)
	a.panels.AddPanel(panelHelp, a.helpModal, false, false)
	a.panels.AddPanel(panelDetail, a.detailModal, false, false)
	a.panels.AddPanel(panelConfirm, a.confirmModal, false, false)
	a.panels.AddPanel(panelDeleting, a.deletingModal, false, false)

	flex := cview.NewFlex()
	flex.SetDirection(cview.FlexRow)
	flex.AddItem(a.header, 1, 0, false)
	flex.AddItem(a.panels, 0, 1, true)
	flex.AddItem(a.footer, 1, 0, false)

	a.app.SetInputCapture(a.handleInput)
	a.app.SetRoot(flex, true)

	ctrl.SetOnChange(func() { a.trySendUIUpdate(a.render) })

	a.applyTheme()
	return a
}

func (a *App) applyTheme() {
	theme := a.currentTheme

	a.header.SetBackgroundColor(theme.headerBg)
	a.header.SetTextColor(theme.headerFg)
	a.footer.SetBackgroundColor(theme.footerBg)
	a.footer.SetTextColor(theme.footerFg)

	a.logo.SetBackgroundColor(theme.bg)
	a.notice.SetBackgroundColor(theme.bg)
	a.input.SetBackgroundColor(theme.bg)
	a.input.SetLabelColor(theme.yellow)
	a.input.SetFieldBackgroundColor(theme.footerBg)
	a.input.SetFieldTextColor(theme.fg)

	for _, m := range []*cview.Modal{a.helpModal, a.detailModal, a.confirmModal, a.deletingModal} {
		m.SetBackgroundColor(theme.bg)
		m.SetTextColor(theme.fg)
		m.SetButtonBackgroundColor(theme.buttonBg)
		m.SetButtonTextColor(theme.buttonFg)
	}

	a.table.SetBackgroundColor(theme.bg)
	a.panels.SetBackgroundColor(theme.bg)

	a.logo.SetText(renderLogo(&theme))
}

func (a *App) cycleTheme() {
	a.themeName = nextThemeName(a.themeName)
	a.currentTheme = themes[a.themeName]
	a.log.WithField("theme", a.themeName).Debug("switched theme")
	a.applyTheme()
}

// Run blocks until the user quits. A running scan is cancelled and joined
// before it returns.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer a.ctrl.Close()

	go func() {
		for updateFn := range a.uiUpdates {
			a.app.QueueUpdateDraw(updateFn)
		}
	}()
	go a.pollScan(ctx)

	if a.initialPath != "" {
		a.ctrl.SubmitPath(a.initialPath)
	}
	a.render()

	a.log.WithField("theme", a.themeName).Info("starting ui")
	return a.app.Run()
}

func (a *App) Stop() {
	a.ctrl.Quit()
	a.app.Stop()
}
