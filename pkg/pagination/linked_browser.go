package pagination

import (
	"context"
	"errors"
	"net/url"

	"github.com/jose-oc/sequoia-client-go/pkg/logging"
	"github.com/jose-oc/sequoia-client-go/pkg/model"
	"github.com/rs/zerolog"
)

// LinkedResourcesPageBrowser walks the cursor chain of a single sideloaded
// relation. The chain is governed by the meta.linked entries of each page
// of the primary chain rather than by a single flat next cursor: a primary
// page sideloads the relation's first batch, and records a continuation
// reference when that batch was partial.
//
// Like PageBrowser, the iterator is forward-only shared state and is not
// safe for concurrent use.
type LinkedResourcesPageBrowser struct {
	exec     Getter
	main     *PageBrowser
	relation string
	owner    string

	mainYielded bool
	mainDone    bool
	current     *PageBrowser
	pending     []string
	last        []model.Resource

	logger zerolog.Logger
}

func newLinkedBrowser(exec Getter, main *PageBrowser, relation, owner string) *LinkedResourcesPageBrowser {
	return &LinkedResourcesPageBrowser{
		exec:     exec,
		main:     main,
		relation: relation,
		owner:    owner,
		logger:   logging.NewLogger("pagination"),
	}
}

// Next yields the next batch of resources for the relation. Batches come
// from three sources, tried in order on each cycle: the freshly pulled
// primary page's sideload block, the active continuation chain, and the
// head of the pending continuation list. The sequence ends with
// ErrNoMorePages once the primary chain is exhausted with nothing pending
// or active.
func (l *LinkedResourcesPageBrowser) Next(ctx context.Context) ([]model.Resource, error) {
	for {
		if !l.mainYielded && !l.mainDone {
			l.mainYielded = true

			page, err := l.main.Next(ctx)
			switch {
			case errors.Is(err, ErrNoMorePages):
				l.mainDone = true
			case err != nil:
				return nil, err
			default:
				continuations := page.Continuations(l.relation, l.main.continuationPage)
				if len(continuations) > 0 {
					l.pending = append(l.pending, continuations...)
					l.logger.Debug().
						Str("relation", l.relation).
						Int("continuations", len(continuations)).
						Msg("Linked continuations discovered")
				}

				if resources := page.LinkedResources(l.relation); len(resources) > 0 {
					l.last = resources
					return resources, nil
				}
			}
		}

		if l.current != nil {
			page, err := l.current.Next(ctx)
			switch {
			case errors.Is(err, ErrNoMorePages):
				l.current = nil
			case err != nil:
				return nil, err
			default:
				l.last = page.Resources()
				return l.last, nil
			}
		}

		if len(l.pending) > 0 {
			next := l.pending[0]
			l.pending = l.pending[1:]

			browser, err := l.continuationBrowser(next)
			if err != nil {
				return nil, err
			}
			l.current = browser

			page, err := browser.Next(ctx)
			if err != nil {
				return nil, err
			}
			l.last = page.Resources()
			return l.last, nil
		}

		if l.mainDone {
			return nil, ErrNoMorePages
		}

		// Nothing active or pending: pull another primary page
		l.mainYielded = false
	}
}

// Resources returns the most recently surfaced batch for the relation.
// Before the first advance it peeks the wrapped primary browser's first
// page, so the first sideloaded batch is readable without iterating.
func (l *LinkedResourcesPageBrowser) Resources(ctx context.Context) ([]model.Resource, error) {
	if l.last != nil {
		return l.last, nil
	}

	page, err := l.main.Peek(ctx)
	if err != nil {
		if errors.Is(err, ErrNoMorePages) {
			return nil, nil
		}
		return nil, err
	}

	return page.LinkedResources(l.relation), nil
}

// continuationBrowser builds the secondary browser for one continuation
// reference, carrying the stored owner.
func (l *LinkedResourcesPageBrowser) continuationBrowser(reference string) (*PageBrowser, error) {
	u, err := url.Parse(reference)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	if l.owner != "" {
		params.Set("owner", l.owner)
	}

	return newBrowser(l.exec, l.main.serviceLocation, l.relation, Options{
		QueryString:      u.RawQuery,
		Params:           params,
		Descriptor:       l.main.descriptor,
		ContinuationPage: l.main.continuationPage,
	}), nil
}
