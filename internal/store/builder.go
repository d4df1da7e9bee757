package store

import (
	"fmt"
	"strconv"
	"strings"

	"caddvault/internal/query"
)

// summaryColumns is the select list for list rows. Tags come back as a
// comma-joined aggregate so scanning stays plain database/sql.
const summaryColumns = `p.id, p.name, COALESCE(p.description, ''),
	COALESCE(fc.folder, ''), COALESCE(fc.category, ''),
	COALESCE((SELECT string_agg(t.name, ',' ORDER BY t.name)
		FROM package_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.package_id = p.id), ''),
	COALESCE(p.license, ''), COALESCE(p.github_stars, 0), COALESCE(p.citations, 0),
	COALESCE(p.average_rating, 0), COALESCE(p.ratings_count, 0),
	COALESCE(p.repo_link, ''), COALESCE(p.webserver_link, ''),
	COALESCE(p.publication_url, ''), COALESCE(p.journal, ''), COALESCE(p.last_commit, '')`

const summaryFrom = `FROM packages p LEFT JOIN folder_categories fc ON fc.id = p.folder_category_id`

// intColumns lists columns whose gte operands must be bound as integers.
var intColumns = map[string]bool{
	"github_stars": true,
	"citations":    true,
}

// columnRef qualifies a predicate or sort field with its table alias. Folder
// and category live on the classification relation, everything else on the
// package row.
func columnRef(field string) string {
	switch field {
	case "folder", "category":
		return "fc." + field
	default:
		return "p." + field
	}
}

// BuildSelect renders a translated query into the page SQL and the matching
// exact-count SQL. Both share one argument list; the count statement uses the
// leading arguments only.
func BuildSelect(req query.Request) (pageSQL, countSQL string, args []any, err error) {
	where, args, err := buildWhere(req.Predicates)
	if err != nil {
		return "", "", nil, err
	}

	countSQL = "SELECT COUNT(*) " + summaryFrom + where

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(summaryColumns)
	b.WriteString(" ")
	b.WriteString(summaryFrom)
	b.WriteString(where)
	b.WriteString(orderClause(req.OrderBy))
	b.WriteString(" OFFSET ")
	b.WriteString(strconv.Itoa(req.Offset))
	b.WriteString(" LIMIT ")
	b.WriteString(strconv.Itoa(req.Limit))

	return b.String(), countSQL, args, nil
}

// buildWhere renders the predicate list. Predicates are ANDed; set-valued
// operators expand into placeholders so no driver-side array support is
// needed.
func buildWhere(preds []query.Predicate) (string, []any, error) {
	if len(preds) == 0 {
		return "", nil, nil
	}

	var clauses []string
	var args []any

	next := func(arg any) string {
		args = append(args, arg)
		return "$" + strconv.Itoa(len(args))
	}

	for _, p := range preds {
		switch p.Op {
		case query.OpContains:
			pattern := "%" + escapeLike(p.Value) + "%"
			if p.Field == query.FieldText {
				ph := next(pattern)
				clauses = append(clauses, fmt.Sprintf(`(p.name ILIKE %s ESCAPE '\' OR p.description ILIKE %s ESCAPE '\')`, ph, ph))
			} else {
				clauses = append(clauses, fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, columnRef(p.Field), next(pattern)))
			}

		case query.OpGte:
			arg, err := gteArg(p)
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, fmt.Sprintf("%s >= %s", columnRef(p.Field), next(arg)))

		case query.OpEq:
			clauses = append(clauses, fmt.Sprintf("%s = %s", columnRef(p.Field), next(p.Value)))

		case query.OpNotNull:
			ref := columnRef(p.Field)
			clauses = append(clauses, fmt.Sprintf("(%s IS NOT NULL AND %s <> '')", ref, ref))

		case query.OpAnyOf:
			if len(p.Values) == 0 {
				continue
			}
			placeholders := make([]string, len(p.Values))
			for i, v := range p.Values {
				placeholders[i] = next(v)
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", columnRef(p.Field), strings.Join(placeholders, ", ")))

		case query.OpAllOf:
			if len(p.Values) == 0 {
				continue
			}
			if p.Field != "tags" {
				return "", nil, fmt.Errorf("all_of is only supported for tags, got %q", p.Field)
			}
			placeholders := make([]string, len(p.Values))
			for i, v := range p.Values {
				placeholders[i] = next(v)
			}
			// Containment over the normalized tag relation: the package must
			// carry every selected tag.
			clauses = append(clauses, fmt.Sprintf(
				`p.id IN (SELECT pt.package_id FROM package_tags pt JOIN tags t ON t.id = pt.tag_id
				WHERE t.name IN (%s) GROUP BY pt.package_id HAVING COUNT(DISTINCT t.name) = %d)`,
				strings.Join(placeholders, ", "), len(p.Values)))

		default:
			return "", nil, fmt.Errorf("unsupported operator %q", p.Op)
		}
	}

	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// gteArg binds the lower-bound operand with the column's native type.
func gteArg(p query.Predicate) (any, error) {
	if intColumns[p.Field] {
		n, err := strconv.Atoi(p.Value)
		if err != nil {
			return nil, fmt.Errorf("bad integer bound for %s: %w", p.Field, err)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(p.Value, 64)
	if err != nil {
		return nil, fmt.Errorf("bad numeric bound for %s: %w", p.Field, err)
	}
	return f, nil
}

func orderClause(terms []query.Ordering) string {
	if len(terms) == 0 {
		return ""
	}
	parts := make([]string, 0, len(terms))
	for _, o := range terms {
		part := columnRef(o.Field)
		if o.Descending {
			// Descending numeric sorts must not float unrated/unstarred rows
			// to the top.
			part += " DESC NULLS LAST"
		}
		parts = append(parts, part)
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// escapeLike neutralizes LIKE metacharacters in user-typed search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
