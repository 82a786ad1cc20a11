package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/figsync/internal/pathstore"
)

// Ensure Pathstore implements the interface.
var _ Store = (*Pathstore)(nil)

const pathRoot = "figsync/documents"

// Pathstore keeps shared data in a remote pathstore under
// figsync/documents/{document}/{namespace}/{name}.
type Pathstore struct {
	client *pathstore.Client
}

func NewPathstore(client *pathstore.Client) *Pathstore {
	return &Pathstore{client: client}
}

func nodePath(key Key) string {
	return pathRoot + "/" + key.Document + "/" + key.Namespace + "/" + key.Name
}

func (p *Pathstore) Get(ctx context.Context, key Key) (string, bool, error) {
	if err := key.Validate(); err != nil {
		return "", false, err
	}
	node, err := p.client.GetNode(ctx, nodePath(key))
	if err != nil {
		return "", false, err
	}
	if node == nil {
		return "", false, nil
	}
	s, ok := node.Value.(string)
	if !ok {
		return "", false, fmt.Errorf("pathstore %s: expected string value, got %T", key, node.Value)
	}
	return s, true, nil
}

func (p *Pathstore) Set(ctx context.Context, key Key, value string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	return p.client.PutNode(ctx, nodePath(key), pathstore.NodeRequest{
		Value:  value,
		Source: "figsync",
	})
}

func (p *Pathstore) Delete(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	return p.client.DeleteNode(ctx, nodePath(key), false)
}

func (p *Pathstore) Keys(ctx context.Context, document, namespace string) ([]string, error) {
	prefix := pathRoot + "/" + document + "/" + namespace
	nodes, err := p.client.ListChildren(ctx, prefix, 0)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		name := strings.TrimPrefix(n.Key, prefix+"/")
		if name == n.Key || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (p *Pathstore) Close() error {
	p.client.Close()
	return nil
}
