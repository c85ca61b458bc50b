package collection

import (
	"context"
	"fmt"
	"testing"

	"github.com/lvcoi/ytapi-go/internal/jsonvalue"
)

type item struct {
	ID    string
	Title string
}

func decodeItem(v *jsonvalue.Value) (item, error) {
	return item{ID: v.Get("id").MustString(), Title: v.Get("title").MustString()}, nil
}

func idOfItem(it item) string { return it.ID }

func pageJSON(ids []string, nextToken string) *jsonvalue.Value {
	items := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		items = append(items, map[string]interface{}{"id": id, "title": "title-" + id})
	}
	payload := map[string]interface{}{"items": items}
	if nextToken != "" {
		payload["nextPageToken"] = nextToken
	}
	v, err := jsonvalue.FromGo(payload)
	if err != nil {
		panic(err)
	}
	return v
}

func fakeFetcher(pages map[string][]string, nextTokens map[string]string) PageFetcher {
	return func(ctx context.Context, pageToken string) (*jsonvalue.Value, error) {
		ids, ok := pages[pageToken]
		if !ok {
			return nil, fmt.Errorf("no page for token %q", pageToken)
		}
		return pageJSON(ids, nextTokens[pageToken]), nil
	}
}

func TestPaginatorListSinglePage(t *testing.T) {
	fetch := fakeFetcher(map[string][]string{"": {"a", "b"}}, map[string]string{"": ""})
	p := NewPaginator(fetch, decodeItem, idOfItem)

	if err := p.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}
	items := p.Items()
	if len(items) != 2 || items[0].ID != "a" || items[1].ID != "b" {
		t.Fatalf("items = %+v", items)
	}
	if !p.Exhausted() {
		t.Fatalf("expected Exhausted after a single page with no nextPageToken")
	}
}

func TestPaginatorFetchMoreAccumulates(t *testing.T) {
	fetch := fakeFetcher(
		map[string][]string{"": {"a"}, "tok1": {"b"}},
		map[string]string{"": "tok1", "tok1": ""},
	)
	p := NewPaginator(fetch, decodeItem, idOfItem)

	if err := p.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if p.Exhausted() {
		t.Fatalf("should not be exhausted with a nextPageToken present")
	}
	if err := p.FetchMore(context.Background()); err != nil {
		t.Fatalf("FetchMore error: %v", err)
	}
	items := p.Items()
	if len(items) != 2 || items[0].ID != "a" || items[1].ID != "b" {
		t.Fatalf("items = %+v", items)
	}
	if !p.Exhausted() {
		t.Fatalf("expected Exhausted after the last page")
	}
}

func TestPaginatorFetchMoreNoOpWhenExhausted(t *testing.T) {
	fetch := fakeFetcher(map[string][]string{"": {"a"}}, map[string]string{"": ""})
	p := NewPaginator(fetch, decodeItem, idOfItem)
	if err := p.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if err := p.FetchMore(context.Background()); err != nil {
		t.Fatalf("FetchMore error: %v", err)
	}
	if len(p.Items()) != 1 {
		t.Fatalf("FetchMore after exhaustion should not change items")
	}
}

func TestPaginatorFetchMoreNoOpWhenNotStarted(t *testing.T) {
	fetch := fakeFetcher(map[string][]string{"": {"a"}}, map[string]string{"": ""})
	p := NewPaginator(fetch, decodeItem, idOfItem)
	if err := p.FetchMore(context.Background()); err != nil {
		t.Fatalf("FetchMore error: %v", err)
	}
	if len(p.Items()) != 0 {
		t.Fatalf("expected no items before List was ever called")
	}
}

func TestPaginatorReloadReplacesItems(t *testing.T) {
	calls := 0
	fetch := PageFetcher(func(ctx context.Context, pageToken string) (*jsonvalue.Value, error) {
		calls++
		if calls == 1 {
			return pageJSON([]string{"a", "b"}, ""), nil
		}
		return pageJSON([]string{"c"}, ""), nil
	})
	p := NewPaginator(fetch, decodeItem, idOfItem)
	if err := p.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if err := p.Reload(context.Background()); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	items := p.Items()
	if len(items) != 1 || items[0].ID != "c" {
		t.Fatalf("items after Reload = %+v, want just [c]", items)
	}
}

func TestPaginatorInsertAppends(t *testing.T) {
	fetch := fakeFetcher(map[string][]string{"": {"a"}}, map[string]string{"": ""})
	p := NewPaginator(fetch, decodeItem, idOfItem)
	if err := p.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}

	mutate := Mutator(func(ctx context.Context) (*jsonvalue.Value, error) {
		v, _ := jsonvalue.FromGo(map[string]interface{}{"id": "new", "title": "fresh"})
		return v, nil
	})
	if err := p.Insert(context.Background(), mutate); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	items := p.Items()
	if len(items) != 2 || items[1].ID != "new" {
		t.Fatalf("items after Insert = %+v", items)
	}
}

func TestPaginatorUpdateReplacesMatchingItem(t *testing.T) {
	fetch := fakeFetcher(map[string][]string{"": {"a", "b"}}, map[string]string{"": ""})
	p := NewPaginator(fetch, decodeItem, idOfItem)
	if err := p.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}

	mutate := Mutator(func(ctx context.Context) (*jsonvalue.Value, error) {
		v, _ := jsonvalue.FromGo(map[string]interface{}{"id": "a", "title": "updated"})
		return v, nil
	})
	if err := p.Update(context.Background(), mutate); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	items := p.Items()
	if len(items) != 2 {
		t.Fatalf("Update should not change item count, got %+v", items)
	}
	if items[0].Title != "updated" {
		t.Fatalf("items[0] = %+v, want Title=updated", items[0])
	}
}

func TestPaginatorUpdateAppendsWhenNotFound(t *testing.T) {
	fetch := fakeFetcher(map[string][]string{"": {"a"}}, map[string]string{"": ""})
	p := NewPaginator(fetch, decodeItem, idOfItem)
	if err := p.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}

	mutate := Mutator(func(ctx context.Context) (*jsonvalue.Value, error) {
		v, _ := jsonvalue.FromGo(map[string]interface{}{"id": "z", "title": "zeta"})
		return v, nil
	})
	if err := p.Update(context.Background(), mutate); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if len(p.Items()) != 2 {
		t.Fatalf("expected Update to append when id not found")
	}
}

func TestPaginatorDeleteRemovesMatchingItem(t *testing.T) {
	fetch := fakeFetcher(map[string][]string{"": {"a", "b"}}, map[string]string{"": ""})
	p := NewPaginator(fetch, decodeItem, idOfItem)
	if err := p.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}

	mutate := Mutator(func(ctx context.Context) (*jsonvalue.Value, error) {
		return jsonvalue.New(), nil
	})
	if err := p.Delete(context.Background(), "a", mutate); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	items := p.Items()
	if len(items) != 1 || items[0].ID != "b" {
		t.Fatalf("items after Delete = %+v, want just [b]", items)
	}
}

func TestPaginatorInsertPropagatesMutatorError(t *testing.T) {
	fetch := fakeFetcher(map[string][]string{"": {"a"}}, map[string]string{"": ""})
	p := NewPaginator(fetch, decodeItem, idOfItem)
	if err := p.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}

	mutate := Mutator(func(ctx context.Context) (*jsonvalue.Value, error) {
		return nil, fmt.Errorf("upstream failed")
	})
	if err := p.Insert(context.Background(), mutate); err == nil {
		t.Fatalf("expected Insert to propagate the mutator error")
	}
	if len(p.Items()) != 1 {
		t.Fatalf("failed Insert should not change items")
	}
}

func TestPaginatorSatisfiesCollectionInterface(t *testing.T) {
	var _ Collection = NewPaginator(fakeFetcher(map[string][]string{"": {}}, map[string]string{"": ""}), decodeItem, idOfItem)
}

func TestPaginatorCancelDoesNotPanicWithoutInFlightRequest(t *testing.T) {
	fetch := fakeFetcher(map[string][]string{"": {"a"}}, map[string]string{"": ""})
	p := NewPaginator(fetch, decodeItem, idOfItem)
	p.Cancel()
}
