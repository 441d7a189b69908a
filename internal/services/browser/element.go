package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/uiprobe/internal/interfaces"
	"github.com/ternarybob/uiprobe/internal/models"
)

// element is a node resolved by Find. It stays valid until the document is replaced.
type element struct {
	session   *Session
	id        cdp.NodeID
	name      string
	inputType string
}

func (e *element) ids() []cdp.NodeID {
	return []cdp.NodeID{e.id}
}

func (e *element) Click(ctx context.Context) error {
	if err := e.session.act(ctx, e.session.opts.ActionTimeout, chromedp.Click(e.ids(), chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("click on <%s>: %w", e.name, err)
	}
	return nil
}

func (e *element) Fill(ctx context.Context, text string) error {
	var action chromedp.Action
	switch e.inputType {
	case "date", "time", "datetime-local", "month", "week":
		// Typed input in these fields follows the browser locale
		action = chromedp.SetValue(e.ids(), text, chromedp.ByNodeID)
	default:
		action = chromedp.Tasks{
			chromedp.Clear(e.ids(), chromedp.ByNodeID),
			chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID),
		}
	}

	if err := e.session.act(ctx, e.session.opts.ActionTimeout, action); err != nil {
		return fmt.Errorf("fill <%s>: %w", e.name, err)
	}
	return nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	return e.session.textOf(ctx, e.id)
}

// Find resolves every node matching the locator's CSS, then applies its
// visibility and text filters
func (s *Session) Find(ctx context.Context, locator models.Locator) ([]interfaces.Element, error) {
	var nodes []*cdp.Node
	if err := s.exec(ctx, s.opts.ActionTimeout,
		chromedp.Nodes(locator.CSS, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", locator, err)
	}

	elements := make([]interfaces.Element, 0, len(nodes))
	for _, node := range nodes {
		if locator.VisibleOnly && !s.visible(ctx, node.NodeID) {
			continue
		}
		if len(locator.Texts) > 0 {
			text, err := s.textOf(ctx, node.NodeID)
			if err != nil || !locator.MatchesText(text) {
				continue
			}
		}

		inputType, _ := node.Attribute("type")
		elements = append(elements, &element{
			session:   s,
			id:        node.NodeID,
			name:      strings.ToLower(node.NodeName),
			inputType: strings.ToLower(inputType),
		})
	}

	return elements, nil
}

func (s *Session) Count(ctx context.Context, locator models.Locator) (int, error) {
	elements, err := s.Find(ctx, locator)
	return len(elements), err
}

// visible reports whether a node has a layout box; hidden and detached nodes do not
func (s *Session) visible(ctx context.Context, id cdp.NodeID) bool {
	err := s.exec(ctx, s.opts.ActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := dom.GetBoxModel().WithNodeID(id).Do(ctx)
		return err
	}))
	return err == nil
}

func (s *Session) textOf(ctx context.Context, id cdp.NodeID) (string, error) {
	var text string
	if err := s.exec(ctx, s.opts.ActionTimeout,
		chromedp.TextContent([]cdp.NodeID{id}, &text, chromedp.ByNodeID),
	); err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
