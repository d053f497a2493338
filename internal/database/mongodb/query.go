package mongodb

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/polydb-io/polydb/pkg/provider"
)

type queryKind int

const (
	queryFind queryKind = iota
	queryCount
)

type parsedQuery struct {
	Kind       queryKind
	Collection string
	Filter     bson.M
}

// parseQuery recognizes shell-style query text. Accepted forms:
//
//	db.users.find({age: {$gt: 21}})
//	db.users.countDocuments({})
//	db.users.count()
//	{status: "active"}              (bare filter, needs a context table)
//
// Aggregation pipelines and other collection methods are rejected as
// unsupported rather than as syntax errors.
func parseQuery(query, contextTable string) (*parsedQuery, error) {
	text := strings.TrimSpace(query)
	if text == "" {
		return nil, provider.NewQuerySyntaxError(provider.MongoDB,
			"query text is empty",
			"write db.<collection>.find({...}) or a bare filter document")
	}

	if strings.HasPrefix(text, "{") {
		if contextTable == "" {
			return nil, provider.NewQuerySyntaxError(provider.MongoDB,
				"bare filter document without a collection",
				"select a collection first or write db.<collection>.find({...})")
		}
		filter, err := parseFilter(text)
		if err != nil {
			return nil, err
		}
		return &parsedQuery{Kind: queryFind, Collection: contextTable, Filter: filter}, nil
	}

	if !strings.HasPrefix(text, "db.") {
		return nil, provider.NewQuerySyntaxError(provider.MongoDB,
			fmt.Sprintf("unrecognized query %q", truncate(text, 60)),
			"write db.<collection>.find({...}) or a bare filter document")
	}

	rest := text[len("db."):]
	dot := strings.Index(rest, ".")
	if dot <= 0 {
		return nil, provider.NewQuerySyntaxError(provider.MongoDB,
			"missing collection method",
			"write db.<collection>.find({...})")
	}
	collection := rest[:dot]
	call := rest[dot+1:]

	open := strings.Index(call, "(")
	if open < 0 || !strings.HasSuffix(strings.TrimSpace(call), ")") {
		return nil, provider.NewQuerySyntaxError(provider.MongoDB,
			"malformed method call",
			"write db.<collection>.find({...})")
	}
	method := strings.TrimSpace(call[:open])
	args := strings.TrimSpace(call[open+1:])
	args = strings.TrimSpace(strings.TrimSuffix(args, ")"))

	switch method {
	case "find":
		filter, err := parseOptionalFilter(args)
		if err != nil {
			return nil, err
		}
		return &parsedQuery{Kind: queryFind, Collection: collection, Filter: filter}, nil
	case "countDocuments", "count":
		filter, err := parseOptionalFilter(args)
		if err != nil {
			return nil, err
		}
		return &parsedQuery{Kind: queryCount, Collection: collection, Filter: filter}, nil
	case "aggregate":
		return nil, provider.NewUnsupportedError(provider.MongoDB, "run_query",
			"aggregation pipelines are not supported")
	default:
		return nil, provider.NewUnsupportedError(provider.MongoDB, "run_query",
			fmt.Sprintf("collection method %q is not supported", method))
	}
}

func parseOptionalFilter(args string) (bson.M, error) {
	if args == "" {
		return bson.M{}, nil
	}
	return parseFilter(args)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
