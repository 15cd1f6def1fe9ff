package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/sms/internal/archive"
	"github.com/matheus3301/sms/internal/backup"
	"github.com/matheus3301/sms/internal/bus"
	"github.com/matheus3301/sms/internal/rpc"
	"github.com/matheus3301/sms/internal/tui/client"
	"github.com/matheus3301/sms/internal/tui/keys"
	"github.com/matheus3301/sms/internal/tui/model"
	"github.com/matheus3301/sms/internal/tui/ui"
	"github.com/matheus3301/sms/internal/tui/views"
	"github.com/rivo/tview"
)

const (
	pageConversations = "conversations"
	pageArchive       = "archive"
	pageThread        = "thread"
)

const headerHeight = 6

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	vm       *model.ViewModel
	registry *keys.Registry
	flash    *ui.FlashModel
	session  string

	root        *tview.Flex
	header      *tview.Flex
	pages       *ui.Pages
	info        *ui.SessionInfo
	menu        *ui.Menu
	logo        *ui.Logo
	crumbs      *ui.Crumbs
	prompt      *ui.Prompt
	flashBar    *ui.FlashBar
	statusBar   *views.StatusBar
	convList    *views.ConversationList
	archiveList *views.ArchiveList
	thread      *views.MessageThread
	components  map[string]ui.Component
	promptOpen  bool

	archive *archive.Controller

	mu      sync.Mutex
	ownRuns map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(c *client.Client, sessionName string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:         tview.NewApplication(),
		theme:       theme,
		vm:          model.NewViewModel(c),
		registry:    keys.NewRegistry(),
		flash:       ui.NewFlashModel(),
		session:     sessionName,
		pages:       ui.NewPages(),
		info:        ui.NewSessionInfo(theme),
		menu:        ui.NewMenu(theme),
		logo:        ui.NewLogo(theme),
		crumbs:      ui.NewCrumbs(theme),
		prompt:      ui.NewPrompt(theme),
		flashBar:    ui.NewFlashBar(theme),
		statusBar:   views.NewStatusBar(),
		convList:    views.NewConversationList(theme),
		archiveList: views.NewArchiveList(theme),
		thread:      views.NewMessageThread(theme),
		ownRuns:     make(map[string]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
	a.components = map[string]ui.Component{
		pageConversations: a.convList,
		pageArchive:       a.archiveList,
		pageThread:        a.thread,
	}
	a.archive = archive.NewController(a.vm, a.archiveList, a, a.queueUpdate)

	a.statusBar.SetSession(sessionName)
	a.statusBar.SetState("CONNECTING")
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) queueUpdate(f func()) {
	a.app.QueueUpdateDraw(f)
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(keys.Rune("quit", 'q', a.Stop))
	a.registry.AddGlobal(keys.Rune("command", ':', func() { a.openPrompt(ui.PromptCommand) }))

	a.registry.AddView(pageConversations, keys.Rune("archived", 'a', a.showArchive))
	a.registry.AddView(pageConversations, keys.Rune("pin", 'p', a.togglePinned))
	a.registry.AddView(pageConversations, keys.Rune("archive", 'x', a.archiveSelected))
	a.registry.AddView(pageConversations, keys.Rune("filter", '/', func() { a.openPrompt(ui.PromptFilter) }))
	a.registry.AddView(pageConversations, keys.Rune("reload", 'r', a.vm.RequestRefresh))

	a.registry.AddView(pageArchive, keys.Rune("reload", 'r', a.loadArchive))
}

func (a *App) setupCallbacks() {
	a.convList.SetSelectedFunc(func(_, _ int) {
		if c, ok := a.convList.Selected(); ok {
			a.OpenThread(c.ThreadID, conversationTitle(c))
		}
	})
	a.archiveList.SetSelectedFunc(func(i int) {
		a.archive.Activate(i)
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.closePrompt()
		switch mode {
		case ui.PromptFilter:
			a.convList.SetFilter(text)
		case ui.PromptCommand:
			a.runCommand(ParseCommand(text))
		}
	})
	a.prompt.SetOnCancel(func() {
		if a.prompt.Mode() == ui.PromptFilter {
			a.convList.ClearFilter()
		}
		a.closePrompt()
	})

	a.crumbs.SetLabeler(func(page string) string {
		if page == pageThread {
			return a.thread.Title()
		}
		return page
	})
	a.pages.SetOnChange(func(stack []string) {
		a.crumbs.Update(stack)
		if c, ok := a.components[a.pages.Current()]; ok {
			a.menu.Update(c.Hints())
		}
	})
}

func (a *App) setupLayout() {
	a.pages.AddPage(pageConversations, a.convList, true, false)
	a.pages.AddPage(pageArchive, a.archiveList, true, false)
	a.pages.AddPage(pageThread, a.thread, true, false)

	a.header = tview.NewFlex().
		AddItem(a.info, 30, 0, false).
		AddItem(a.menu, 0, 1, false).
		AddItem(a.logo, 14, 0, false)
	a.root = tview.NewFlex().SetDirection(tview.FlexRow)
	a.layout()

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.handleKey)

	for _, c := range a.components {
		c.Init()
	}
	a.pages.Reset(pageConversations)
	a.app.SetFocus(a.convList)
}

func (a *App) layout() {
	a.root.Clear()
	a.root.AddItem(a.header, headerHeight, 0, false)
	if a.promptOpen {
		a.root.AddItem(a.prompt, 3, 0, true)
	}
	a.root.AddItem(a.crumbs, 1, 0, false).
		AddItem(a.pages, 0, 1, !a.promptOpen).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)
}

func (a *App) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	if a.promptOpen {
		return ev
	}
	if ev.Key() == tcell.KeyEscape {
		if a.pages.Current() == pageConversations && a.convList.Filter() != "" {
			a.convList.ClearFilter()
			return nil
		}
		if a.pages.Pop() != "" {
			a.focusCurrent()
			return nil
		}
		return ev
	}
	if a.registry.HandleEvent(a.pages.Current(), ev) {
		return nil
	}
	return ev
}

func (a *App) focusCurrent() {
	switch a.pages.Current() {
	case pageArchive:
		a.app.SetFocus(a.archiveList)
	case pageThread:
		a.app.SetFocus(a.thread)
	default:
		a.app.SetFocus(a.convList)
	}
}

func (a *App) openPrompt(mode ui.PromptMode) {
	a.prompt.Activate(mode)
	a.promptOpen = true
	a.layout()
	a.app.SetFocus(a.prompt)
}

func (a *App) closePrompt() {
	a.promptOpen = false
	a.layout()
	a.focusCurrent()
}

// OpenThread implements archive.Navigator. It runs on the UI goroutine.
func (a *App) OpenThread(threadID int64, title string) {
	a.thread.SetThread(threadID, title)
	a.thread.Clear()
	a.pages.Push(pageThread)
	a.app.SetFocus(a.thread)

	go func() {
		err := a.vm.LoadMessages(a.ctx, threadID)
		a.queueUpdate(func() {
			if err != nil {
				a.flash.Err(fmt.Errorf("load messages: %w", err))
				return
			}
			if a.thread.ThreadID() == threadID {
				a.thread.Update(a.vm.Messages())
			}
		})
	}()
}

func (a *App) showArchive() {
	a.pages.Push(pageArchive)
	a.loadArchive()
}

func (a *App) loadArchive() {
	a.app.SetFocus(a.archiveList)
	done := a.archive.Load(a.ctx)
	go func() {
		select {
		case <-done:
		case <-a.ctx.Done():
			return
		}
		a.queueUpdate(func() {
			if a.pages.Current() == pageArchive {
				a.app.SetFocus(a.archiveList)
			}
		})
	}()
}

func (a *App) togglePinned() {
	c, ok := a.convList.Selected()
	if !ok {
		return
	}
	go func() {
		updated, err := a.vm.SetPinned(a.ctx, c.ThreadID, !c.Pinned)
		if err != nil {
			a.flash.Err(fmt.Errorf("pin: %w", err))
			return
		}
		if updated.Pinned {
			a.flash.Infof("Pinned %s", conversationTitle(*updated))
		} else {
			a.flash.Infof("Unpinned %s", conversationTitle(*updated))
		}
	}()
}

func (a *App) archiveSelected() {
	c, ok := a.convList.Selected()
	if !ok {
		return
	}
	go func() {
		updated, err := a.vm.SetArchived(a.ctx, c.ThreadID, true)
		if err != nil {
			a.flash.Err(fmt.Errorf("archive: %w", err))
			return
		}
		a.flash.Infof("Archived %s", conversationTitle(*updated))
	}()
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case CmdImport:
		a.startImport(cmd.Args)
	case CmdExport:
		a.startExport(cmd.Args)
	case CmdArchive:
		a.showArchive()
	case CmdConversations:
		a.pages.Reset(pageConversations)
		a.focusCurrent()
	case CmdReload:
		a.vm.RequestRefresh()
	case CmdQuit:
		a.Stop()
	default:
		a.flash.Warn(fmt.Sprintf("Unknown command %q", cmd.Name))
	}
}

func (a *App) startImport(arg string) {
	source, err := backup.ResolveSource(arg)
	if err != nil {
		a.flash.Err(err)
		return
	}
	go func() {
		last, err := a.vm.Import(a.ctx, source, func(evt rpc.ImportEvent) {
			if evt.Kind == rpc.ImportStarted {
				a.mu.Lock()
				a.ownRuns[evt.RunID] = true
				a.mu.Unlock()
			}
		})
		a.queueUpdate(func() { a.statusBar.SetProgress(-1, 0) })
		if err != nil {
			a.flash.Err(fmt.Errorf("import: %w", err))
			return
		}
		t := importSummary(last.Result, last.Imported, last.Failed)
		a.raise(t)
	}()
}

func (a *App) startExport(arg string) {
	if arg == "" {
		arg = fmt.Sprintf("sms-backup-%s.json", time.Now().Format("2006-01-02_15-04-05"))
	}
	path, err := backup.ResolveTarget(arg)
	if err != nil {
		a.flash.Err(err)
		return
	}
	a.flash.Infof("Exporting to %s", path)
	go func() {
		if _, err := a.vm.Export(a.ctx, path); err != nil {
			a.flash.Err(fmt.Errorf("export: %w", err))
		}
	}()
}

func (a *App) raise(t toast) {
	switch t.Level {
	case ui.FlashErr:
		a.flash.Err(errors.New(t.Text))
	case ui.FlashWarn:
		a.flash.Warn(t.Text)
	default:
		a.flash.Info(t.Text)
	}
}

// handleEvent runs on the event stream goroutine.
func (a *App) handleEvent(evt rpc.EventEnvelope) {
	p := decodePayload(evt)

	if refreshes(evt.Kind) {
		a.vm.RequestRefresh()
	}
	switch evt.Kind {
	case bus.KindImportProgress:
		a.queueUpdate(func() { a.statusBar.SetProgress(p.Total, p.Current) })
		return
	case bus.KindImportFinished:
		a.queueUpdate(func() { a.statusBar.SetProgress(-1, 0) })
		a.mu.Lock()
		own := a.ownRuns[p.RunID]
		delete(a.ownRuns, p.RunID)
		a.mu.Unlock()
		if own {
			return
		}
	case bus.KindStatusChanged:
		a.queueUpdate(func() { a.statusBar.SetState(p.To) })
		return
	}
	if t, ok := toastFor(evt, p); ok {
		a.raise(t)
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	go a.loadInitial()
	go a.watchEvents()
	go a.watchFlash()
	go a.refreshLoop()

	return a.app.Run()
}

func (a *App) loadInitial() {
	if err := a.vm.LoadStatus(a.ctx); err != nil {
		a.flash.Err(fmt.Errorf("daemon status: %w", err))
	}
	if err := a.vm.LoadConversations(a.ctx); err != nil {
		a.flash.Err(fmt.Errorf("load conversations: %w", err))
	}
	a.queueUpdate(func() {
		a.convList.Update(a.vm.Conversations())
		a.renderStatus()
	})
}

func (a *App) watchEvents() {
	for {
		err := a.vm.WatchEvents(a.ctx, a.handleEvent)
		if a.ctx.Err() != nil {
			return
		}
		if err != nil {
			a.flash.Warn("Event stream lost: " + err.Error())
		}
		select {
		case <-time.After(2 * time.Second):
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) watchFlash() {
	for {
		select {
		case msg := <-a.flash.Watch():
			a.queueUpdate(func() { a.flashBar.Update(&msg) })
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) refreshLoop() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.vm.RefreshCh():
			if err := a.vm.LoadConversations(a.ctx); err != nil {
				a.flash.Err(fmt.Errorf("load conversations: %w", err))
				continue
			}
			a.queueUpdate(func() { a.convList.Update(a.vm.Conversations()) })
		case <-ticker.C:
			_ = a.vm.LoadStatus(a.ctx)
			a.queueUpdate(func() {
				a.renderStatus()
				a.flashBar.Update(a.flash.Get())
			})
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) renderStatus() {
	st := a.vm.Status()
	if st == nil {
		return
	}
	a.statusBar.SetState(st.State)
	a.info.Update(&ui.SessionData{
		Session:       a.session,
		State:         st.State,
		Conversations: st.ConversationCount,
		Messages:      st.MessageCount,
		Uptime:        time.Duration(st.UptimeMs) * time.Millisecond,
	})
}

func conversationTitle(c rpc.Conversation) string {
	if c.Title != "" {
		return c.Title
	}
	return c.Recipients
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
