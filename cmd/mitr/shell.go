package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"policymitr-client/internal/documents"
	"policymitr-client/internal/models"
	"policymitr-client/internal/scope"
	"policymitr-client/internal/speech"
	"policymitr-client/internal/surface"
	"policymitr-client/internal/upload"
)

// Backend is everything the terminal client asks of the policy backend.
type Backend interface {
	surface.Backend
	upload.Backend
	ListDocuments(ctx context.Context) ([]models.Document, error)
	GetDocument(ctx context.Context, id string) (*models.DocumentDetail, error)
	DeleteDocument(ctx context.Context, id string) error
	ToggleBookmark(ctx context.Context, id string) (*models.BookmarkResponse, error)
	CompareDocuments(ctx context.Context, idA, idB string) (*models.Comparison, error)
	Recommendations(ctx context.Context, documentID string) ([]string, error)
	Analytics(ctx context.Context) (*models.Analytics, error)
	Health(ctx context.Context) error
}

type shellOptions struct {
	Backend           Backend
	Player            speech.Player
	Resolver          *scope.Resolver
	Out               io.Writer
	DefaultLanguage   string
	TranslateLanguage string
}

// chatPath is where the full-page chat lives.
const chatPath = "/chat"

type shell struct {
	opts     shellOptions
	notifier *terminalNotifier
	uploader *upload.Uploader

	// widget lives for the whole session. routed is the page or document
	// tab belonging to the current path, nil on other paths.
	widget *surface.Surface
	routed *surface.Surface
	active *surface.Surface
	doc    *models.DocumentDetail
}

func newShell(opts shellOptions) *shell {
	n := &terminalNotifier{out: opts.Out}
	sh := &shell{
		opts:     opts,
		notifier: n,
		uploader: upload.NewUploader(opts.Backend, n),
	}
	sh.uploader.OnInspected(sh.printFileInfo)
	return sh
}

// terminalNotifier prints toasts inline.
type terminalNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func (n *terminalNotifier) Error(message string) {
	n.mu.Lock()
	fmt.Fprintf(n.out, "✗ %s\n", message)
	n.mu.Unlock()
}

func (n *terminalNotifier) Success(message string) {
	n.mu.Lock()
	fmt.Fprintf(n.out, "✓ %s\n", message)
	n.mu.Unlock()
}

func (sh *shell) printf(format string, args ...interface{}) {
	sh.notifier.mu.Lock()
	fmt.Fprintf(sh.opts.Out, format, args...)
	sh.notifier.mu.Unlock()
}

func (sh *shell) mount(kind surface.Kind, path string) (*surface.Surface, error) {
	cfg, err := surface.ConfigFor(kind)
	if err != nil {
		return nil, err
	}
	s := surface.Mount(cfg, surface.Deps{
		Backend:  sh.opts.Backend,
		Player:   sh.opts.Player,
		Notifier: sh.notifier,
		Resolver: sh.opts.Resolver,
	}, path)
	s.Observe(surface.Observer{
		Playback: func(u models.PlaybackUpdate) {
			if u.State == speech.Playing.String() {
				sh.printf("♪ playing %s (/stop to stop)\n", u.Key)
			}
		},
	})
	return s, nil
}

// start mounts the widget, navigates to path and focuses kind.
func (sh *shell) start(kind surface.Kind, path string) error {
	w, err := sh.mount(surface.Widget, path)
	if err != nil {
		return err
	}
	sh.widget, sh.active = w, w
	if err := sh.goTo(path); err != nil {
		return err
	}
	return sh.focus(kind)
}

// routeKind reports which surface the route at path mounts besides the
// widget: the document tab on a viewer path, the page on the chat path.
func (sh *shell) routeKind(path string) (surface.Kind, bool) {
	if !sh.opts.Resolver.FromPath(path).IsGeneral() {
		return surface.DocumentTab, true
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if strings.TrimSuffix(path, "/") == chatPath {
		return surface.Page, true
	}
	return "", false
}

// goTo navigates the session. The widget follows every path. The routed
// surface survives only while the path keeps routing to its kind; otherwise
// it is unmounted and its conversation discarded.
func (sh *shell) goTo(path string) error {
	onRouted := sh.active != sh.widget
	sh.widget.Navigate(path)

	kind, ok := sh.routeKind(path)
	if sh.routed != nil {
		if ok && sh.routed.Kind() == kind {
			sh.routed.Navigate(path)
		} else {
			sh.routed.Unmount()
			sh.routed = nil
		}
	}
	if sh.routed == nil && ok {
		s, err := sh.mount(kind, path)
		if err != nil {
			return err
		}
		sh.routed = s
	}

	sh.active = sh.widget
	if onRouted && sh.routed != nil {
		sh.active = sh.routed
	}
	if sh.doc != nil && string(sh.opts.Resolver.FromPath(path)) != sh.doc.ID {
		sh.doc = nil
	}
	return nil
}

// focus points input at the widget or at the routed surface of kind. The
// page is reached by going to the chat path; the document tab needs an open
// document.
func (sh *shell) focus(kind surface.Kind) error {
	switch kind {
	case surface.Widget:
		sh.active = sh.widget
		return nil
	case surface.Page:
		if sh.routed == nil || sh.routed.Kind() != surface.Page {
			if err := sh.goTo(chatPath); err != nil {
				return err
			}
		}
	case surface.DocumentTab:
		if sh.routed == nil || sh.routed.Kind() != surface.DocumentTab {
			return errNoDocumentOpen
		}
	default:
		_, err := surface.ConfigFor(kind)
		return err
	}
	sh.active = sh.routed
	return nil
}

// docTab is the surface that owns the open document's summary audio and
// translations.
func (sh *shell) docTab() (*surface.Surface, error) {
	if sh.doc == nil || sh.routed == nil || sh.routed.Kind() != surface.DocumentTab {
		return nil, errNoDocumentOpen
	}
	return sh.routed, nil
}

var errNoDocumentOpen = errors.New("open a document first (/open <id>)")

func (sh *shell) close() {
	if sh.routed != nil {
		sh.routed.Unmount()
	}
	if sh.widget != nil {
		sh.widget.Unmount()
	}
}

func (sh *shell) prompt() {
	sh.printf("%s [%s]> ", sh.active.Kind(), sh.active.Scope())
}

// render prints the transcript and any visible suggestions.
func (sh *shell) render() {
	for i, m := range sh.active.Messages() {
		sh.printMessage(i, m)
	}
	sh.printSuggestions()
}

func (sh *shell) printMessage(i int, m models.Message) {
	who := "You"
	if m.Role == models.RoleAssistant {
		who = "Mitr"
	}
	offline := ""
	if m.IsOffline {
		offline = " (offline)"
	}
	sh.printf("[%d] %s%s: %s\n", i, who, offline, m.Content)
}

func (sh *shell) printSuggestions() {
	for i, s := range sh.active.Suggestions() {
		sh.printf("  (%d) %s\n", i, s)
	}
}

const helpText = `Type a question to ask Mitr about the document in scope.

  /surface widget|page|document   talk to the widget, the chat page or the open document
  /go <path>                      navigate, e.g. /go /policy/<id> or /go /chat
                                  (leaving a page discards its conversation)
  /select <id>|-                  pick a document explicitly, or - for general
  /draft <text>                   put text in the input
  /send                           send the input
  /suggest <n>                    use suggestion n
  /listen <n> [lang]              listen to message n (again to stop)
  /listen summary [lang]          listen to the open document's summary
  /listen clause <n>              listen to a clause explanation
  /stop                           stop audio
  /translate [lang]               translate the open document's summary
  /copy <n>                       print message n on its own
  /list [all|bookmarked|not_bookmarked] [search]
  /open <id>                      open a document
  /upload <file> [title]          upload a PDF or image
  /bookmark <id>  /delete <id>  /compare <id> <id>  /recs <id>
  /analytics  /health  /quit
`

// exec runs one input line and reports whether the user asked to quit.
func (sh *shell) exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		sh.send(ctx, line)
		return false
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(line, cmd))

	var err error
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		sh.printf("%s", helpText)
	case "/surface":
		err = sh.switchSurface(args)
	case "/go":
		err = sh.navigate(args)
	case "/select":
		err = sh.selectDocument(args)
	case "/draft":
		sh.active.SetDraft(rest)
	case "/send":
		sh.submit(ctx)
	case "/suggest":
		err = sh.suggest(ctx, args)
	case "/listen":
		err = sh.listen(ctx, args)
	case "/stop":
		sh.stopPlayback()
	case "/translate":
		err = sh.translate(ctx, args)
	case "/copy":
		err = sh.copyMessage(args)
	case "/list":
		err = sh.list(ctx, args)
	case "/open":
		err = sh.open(ctx, args)
	case "/upload":
		err = sh.upload(ctx, args)
	case "/bookmark":
		err = sh.bookmark(ctx, args)
	case "/delete":
		err = sh.deleteDocument(ctx, args)
	case "/compare":
		err = sh.compare(ctx, args)
	case "/recs":
		err = sh.recommendations(ctx, args)
	case "/analytics":
		err = sh.analytics(ctx)
	case "/health":
		err = sh.health(ctx)
	default:
		err = fmt.Errorf("unknown command %s (try /help)", cmd)
	}
	if err != nil {
		sh.printf("✗ %v\n", err)
	}
	return false
}

func (sh *shell) send(ctx context.Context, text string) {
	sh.printf("Mitr is thinking...\n")
	reply, ok := sh.active.Send(ctx, text)
	sh.afterSend(reply, ok)
}

func (sh *shell) submit(ctx context.Context) {
	sh.printf("Mitr is thinking...\n")
	reply, ok := sh.active.Submit(ctx)
	sh.afterSend(reply, ok)
}

func (sh *shell) afterSend(reply *models.Message, ok bool) {
	if !ok {
		sh.printf("(nothing to send)\n")
		return
	}
	if reply != nil {
		sh.printMessage(sh.lastIndex(), *reply)
	}
	sh.printSuggestions()
}

func (sh *shell) lastIndex() int { return len(sh.active.Messages()) - 1 }

func (sh *shell) switchSurface(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /surface widget|page|document")
	}
	if err := sh.focus(surface.Kind(args[0])); err != nil {
		return err
	}
	sh.render()
	return nil
}

func (sh *shell) navigate(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /go <path>")
	}
	if err := sh.goTo(args[0]); err != nil {
		return err
	}
	sh.printf("%s scope: %s\n", sh.active.Kind(), sh.active.Scope())
	return nil
}

func (sh *shell) stopPlayback() {
	sh.widget.StopPlayback()
	if sh.routed != nil {
		sh.routed.StopPlayback()
	}
}

func (sh *shell) selectDocument(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /select <id>|-")
	}
	id := args[0]
	if id == "-" {
		id = ""
	}
	sh.active.Select(id)
	sh.printf("scope: %s\n", sh.active.Scope())
	return nil
}

func (sh *shell) suggest(ctx context.Context, args []string) error {
	n, err := indexArg(args, "/suggest <n>")
	if err != nil {
		return err
	}
	done, err := sh.active.ChooseSuggestion(ctx, n)
	if err != nil {
		return err
	}
	if done == nil {
		sh.printf("input: %s  (/send to ask)\n", sh.active.Draft())
		return nil
	}
	sh.printf("Mitr is thinking...\n")
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	msgs := sh.active.Messages()
	sh.printMessage(len(msgs)-1, msgs[len(msgs)-1])
	return nil
}

func (sh *shell) listen(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: /listen <n>|summary|clause <n> [lang]")
	}

	switch args[0] {
	case "summary":
		tab, err := sh.docTab()
		if err != nil {
			return err
		}
		lang := ""
		if len(args) > 1 {
			lang = args[1]
		}
		text := sh.doc.Summary
		if lang != "" && lang != sh.opts.DefaultLanguage {
			translated, err := tab.Translate(ctx, sh.doc.Summary, lang)
			if err != nil {
				return err
			}
			text = translated
		}
		return tab.Listen(ctx, surface.SummaryKey(lang), text, sh.langOr(lang))
	case "clause":
		tab, err := sh.docTab()
		if err != nil {
			return err
		}
		n, err := indexArg(args[1:], "/listen clause <n>")
		if err != nil {
			return err
		}
		for _, c := range sh.doc.Clauses {
			if c.ClauseNumber == n {
				return tab.Listen(ctx, surface.ClauseKey(n), c.Explanation, sh.opts.DefaultLanguage)
			}
		}
		return fmt.Errorf("no clause %d", n)
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("usage: /listen <n>|summary|clause <n> [lang]")
	}
	lang := ""
	if len(args) > 1 {
		lang = args[1]
	}
	return sh.active.ListenMessage(ctx, n, sh.langOr(lang))
}

func (sh *shell) langOr(lang string) string {
	if lang == "" {
		return sh.opts.DefaultLanguage
	}
	return lang
}

func (sh *shell) translate(ctx context.Context, args []string) error {
	tab, err := sh.docTab()
	if err != nil {
		return err
	}
	lang := sh.opts.TranslateLanguage
	if len(args) > 0 {
		lang = args[0]
	}
	sh.printf("Translating...\n")
	translated, err := tab.Translate(ctx, sh.doc.Summary, lang)
	if err != nil {
		// The notifier already showed the failure.
		if errors.Is(err, surface.ErrNoTranslations) || errors.Is(err, surface.ErrNoDocumentInScope) {
			return err
		}
		return nil
	}
	sh.printf("%s\n", translated)
	return nil
}

func (sh *shell) copyMessage(args []string) error {
	n, err := indexArg(args, "/copy <n>")
	if err != nil {
		return err
	}
	text, err := sh.active.MessageText(n)
	if err != nil {
		return err
	}
	sh.printf("%s\n", text)
	return nil
}

func (sh *shell) list(ctx context.Context, args []string) error {
	bookmarks := documents.All
	if len(args) > 0 {
		if b, err := documents.ParseBookmarks(args[0]); err == nil {
			bookmarks = b
			args = args[1:]
		}
	}

	docs, err := sh.opts.Backend.ListDocuments(ctx)
	if err != nil {
		return err
	}
	matched := documents.Filter(docs, bookmarks, strings.Join(args, " "))
	if len(matched) == 0 {
		sh.printf("No policies found.\n")
		return nil
	}
	for _, d := range matched {
		star := " "
		if d.IsBookmarked {
			star = "★"
		}
		sh.printf("%s %s  %s  [%s]  %s\n", star, d.ID, d.Title, d.Category, d.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func (sh *shell) open(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /open <id>")
	}
	doc, err := sh.opts.Backend.GetDocument(ctx, args[0])
	if err != nil {
		return err
	}
	if err := sh.goTo("/policy/" + doc.ID); err != nil {
		return err
	}
	sh.doc = doc

	sh.printf("%s  [%s]\n", doc.Title, doc.Category)
	sh.printf("Difficulty: %s  Confidence: %d%%\n\n", doc.DifficultyLevel(), doc.ConfidencePercent())
	sh.printf("%s\n", doc.Summary)
	for _, c := range doc.Clauses {
		sh.printf("\nClause %d: %s\n  → %s\n", c.ClauseNumber, c.ClauseText, c.Explanation)
	}
	return nil
}

func (sh *shell) upload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: /upload <file> [title]")
	}
	req := models.UploadRequest{
		FilePath: args[0],
		Title:    strings.Join(args[1:], " "),
		Language: sh.opts.DefaultLanguage,
	}
	doc, err := sh.uploader.Upload(ctx, req, func(s upload.Step) {
		sh.printf("[%3d%%] %s\n", s.Percent, s.Status)
	})
	if err != nil {
		// Already reported through the notifier.
		return nil
	}
	return sh.open(ctx, []string{doc.ID})
}

func (sh *shell) printFileInfo(info upload.FileInfo) {
	if info.Pages > 0 {
		sh.printf("%s, %d page(s)\n", info.Name, info.Pages)
	} else {
		sh.printf("%s\n", info.Name)
	}
	if info.Preview != "" {
		sh.printf("  %s\n", info.Preview)
	}
}

func (sh *shell) bookmark(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /bookmark <id>")
	}
	res, err := sh.opts.Backend.ToggleBookmark(ctx, args[0])
	if err != nil {
		return err
	}
	if res.IsBookmarked {
		sh.notifier.Success("Bookmarked")
	} else {
		sh.notifier.Success("Bookmark removed")
	}
	return nil
}

func (sh *shell) deleteDocument(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /delete <id>")
	}
	if err := sh.opts.Backend.DeleteDocument(ctx, args[0]); err != nil {
		return err
	}
	if sh.doc != nil && sh.doc.ID == args[0] {
		sh.doc = nil
	}
	sh.notifier.Success("Policy deleted")
	return nil
}

func (sh *shell) compare(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: /compare <id> <id>")
	}
	c, err := sh.opts.Backend.CompareDocuments(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	sh.printf("%s\n", c.Comparison)
	for _, s := range c.Similarities {
		sh.printf("  = %s\n", s)
	}
	for _, d := range c.Differences {
		sh.printf("  ≠ %s\n", d)
	}
	if c.Recommendation != "" {
		sh.printf("Recommendation: %s\n", c.Recommendation)
	}
	return nil
}

func (sh *shell) recommendations(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /recs <id>")
	}
	recs, err := sh.opts.Backend.Recommendations(ctx, args[0])
	if err != nil {
		return err
	}
	for _, r := range recs {
		sh.printf("  • %s\n", r)
	}
	return nil
}

func (sh *shell) analytics(ctx context.Context) error {
	a, err := sh.opts.Backend.Analytics(ctx)
	if err != nil {
		return err
	}
	sh.printf("Users: %d  Policies: %d  Actions: %d\n", a.TotalUsers, a.TotalPolicies, a.TotalActions)

	categories := make([]string, 0, len(a.Categories))
	for c := range a.Categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		sh.printf("  %-20s %d\n", c, a.Categories[c])
	}
	for _, l := range a.Languages {
		sh.printf("  lang %-15s %d\n", l.Language, l.Count)
	}
	return nil
}

func (sh *shell) health(ctx context.Context) error {
	if err := sh.opts.Backend.Health(ctx); err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	sh.notifier.Success("Backend is up")
	return nil
}

func indexArg(args []string, usage string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	return n, nil
}
