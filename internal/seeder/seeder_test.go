package seeder

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/schema"
)

func graphFrom(t *testing.T, docs ...string) *schema.SchemaGraph {
	t.Helper()
	var schemas []*schema.SystemSchema
	for _, doc := range docs {
		s, err := schema.Parse(strings.NewReader(doc))
		require.NoError(t, err)
		schemas = append(schemas, s)
	}
	g, err := schema.NewSchemaGraph(schemas...)
	require.NoError(t, err)
	return g
}

func values(rows []Row, attr string) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r[attr]
	}
	return out
}

const usersOrdersYAML = `
system:
  name: S
  seed: 42
entities:
  users:
    count: 3
    attributes:
      id:
        type: uuid
        unique: true
  orders:
    count: 5
    attributes:
      id:
        type: uuid
        unique: true
      user_id:
        type: link
        link_to: S.users.id
`

func TestGenerate_LinksDrawFromParentRows(t *testing.T) {
	out, err := New(Options{}).Generate(graphFrom(t, usersOrdersYAML))
	require.NoError(t, err)
	require.Len(t, out, 1)

	sys := out[0]
	users := sys.Entities["users"]
	orders := sys.Entities["orders"]
	require.Len(t, users, 3)
	require.Len(t, orders, 5)

	ids := values(users, "id")
	for _, o := range orders {
		assert.Contains(t, ids, o["user_id"])
	}
	assert.Equal(t, []string{"users", "orders"}, sys.Order)
	assert.Equal(t, int64(42), sys.Metadata.SeedUsed)
	assert.Equal(t, 8, sys.Metadata.TotalRecords)
	assert.Equal(t, map[string]int{"users": 3, "orders": 5}, sys.Metadata.EntityCounts)
}

func TestGenerate_RejectsCycle(t *testing.T) {
	g := graphFrom(t, `
system:
  name: S
entities:
  a:
    count: 2
    attributes:
      id: {type: uuid}
      next_id: {type: link, link_to: S.b.id}
  b:
    count: 2
    attributes:
      id: {type: uuid}
      next_id: {type: link, link_to: S.a.id}
`)
	out, err := New(Options{}).Generate(g)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrCyclicDependency))

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Contains(t, genErr.Cycle, NodeKey{Schema: "S", Entity: "a"})
	assert.Contains(t, genErr.Cycle, NodeKey{Schema: "S", Entity: "b"})
	assert.Contains(t, err.Error(), "S.a -> S.b -> S.a")
	assert.NotEmpty(t, genErr.Suggestion)
}

func TestCompile_CardinalityPrecheck(t *testing.T) {
	g := graphFrom(t, `
system:
  name: S
entities:
  tags:
    count: 50
    attributes:
      name:
        type: choice
        unique: true
        constraints:
          choices: [x, y]
`)
	_, err := New(Options{}).Compile(g)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUniqueExhausted))
	assert.Contains(t, err.Error(), "only 2 unique values possible, 50 requested")

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "S.tags.name", genErr.Path())
	assert.Equal(t, "reduce count or widen choice set", genErr.Suggestion)
}

func TestCompile_CardinalityPrecheckOtherSpaces(t *testing.T) {
	tests := []struct {
		name string
		attr string
	}{
		{"boolean", `{type: boolean, unique: true}`},
		{"int range", `{type: int, unique: true, constraints: {min: 1, max: 3}}`},
		{"date range", `{type: datetime.date, unique: true, constraints: {start: "2024-01-01", end: "2024-01-02"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graphFrom(t, `
system:
  name: S
entities:
  e:
    count: 5
    attributes:
      v: `+tt.attr+`
`)
			_, err := New(Options{}).Compile(g)
			assert.ErrorIs(t, err, ErrUniqueExhausted)
		})
	}
}

func TestGenerate_SameSeedSameOutput(t *testing.T) {
	doc := `
system:
  name: S
  seed: 7
entities:
  users:
    count: 20
    attributes:
      id: {type: uuid, unique: true}
      name: {type: person.full_name}
      age: {type: person.age}
      joined: {type: datetime.date}
      balance: {type: finance.price}
  orders:
    count: 40
    attributes:
      user_id: {type: link, link_to: S.users.id}
      status: {type: choice, constraints: {choices: [new, paid, shipped]}}
`
	first, err := New(Options{}).Generate(graphFrom(t, doc))
	require.NoError(t, err)
	second, err := New(Options{}).Generate(graphFrom(t, doc))
	require.NoError(t, err)

	assert.Equal(t, first[0].Entities["users"], second[0].Entities["users"])
	assert.Equal(t, first[0].Entities["orders"], second[0].Entities["orders"])
}

func TestGenerate_SeedSelection(t *testing.T) {
	doc := `
system:
  name: S
entities:
  users:
    count: 5
    attributes:
      id: {type: uuid}
`
	def, err := New(Options{}).Generate(graphFrom(t, doc))
	require.NoError(t, err)
	assert.Equal(t, schema.DefaultSeed, def[0].Metadata.SeedUsed)

	override := int64(99)
	other, err := New(Options{SeedOverride: &override}).Generate(graphFrom(t, doc))
	require.NoError(t, err)
	assert.Equal(t, int64(99), other[0].Metadata.SeedUsed)
	assert.NotEqual(t, def[0].Entities["users"], other[0].Entities["users"])
}

func TestGenerate_UniqueRequiredEmails(t *testing.T) {
	g := graphFrom(t, `
system:
  name: S
entities:
  customers:
    count: 10
    attributes:
      email:
        type: person.email
        unique: true
        required: true
`)
	out, err := New(Options{}).Generate(g)
	require.NoError(t, err)

	rows := out[0].Entities["customers"]
	require.Len(t, rows, 10)
	seen := make(map[any]bool)
	for _, r := range rows {
		email, ok := r["email"].(string)
		require.True(t, ok)
		assert.NotEmpty(t, email)
		assert.False(t, seen[email], "duplicate email %s", email)
		seen[email] = true
	}
}

func TestGenerate_UniqueAcrossLargeEntity(t *testing.T) {
	g := graphFrom(t, `
system:
  name: S
entities:
  items:
    count: 500
    attributes:
      code: {type: int, unique: true, constraints: {min: 1, max: 500}}
`)
	out, err := New(Options{}).Generate(g)
	require.NoError(t, err)

	seen := make(map[any]bool)
	for _, r := range out[0].Entities["items"] {
		assert.False(t, seen[r["code"]])
		seen[r["code"]] = true
	}
	assert.Len(t, seen, 500)
}

func TestGenerate_RequiredChoiceNeverEmpty(t *testing.T) {
	g := graphFrom(t, `
system:
  name: S
entities:
  e:
    count: 30
    attributes:
      v: {type: choice, constraints: {choices: ["", "a"]}}
`)
	out, err := New(Options{}).Generate(g)
	require.NoError(t, err)
	for _, r := range out[0].Entities["e"] {
		assert.False(t, isEmpty(r["v"]))
	}
}

func TestGenerate_CrossSchemaOrder(t *testing.T) {
	crm := `
system:
  name: crm
entities:
  contacts:
    count: 4
    attributes:
      email: {type: link, link_to: shop.users.email}
`
	shop := `
system:
  name: shop
entities:
  users:
    count: 2
    attributes:
      email: {type: person.email, unique: true}
`
	s := New(Options{})
	plan, err := s.Compile(graphFrom(t, crm, shop))
	require.NoError(t, err)
	assert.Equal(t, []NodeKey{
		{Schema: "shop", Entity: "users"},
		{Schema: "crm", Entity: "contacts"},
	}, plan.Order())

	out, err := s.Run(plan)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "crm", out[0].Schema.Name)

	emails := values(out[1].Entities["users"], "email")
	for _, c := range out[0].Entities["contacts"] {
		assert.Contains(t, emails, c["email"])
	}
}

func TestGenerate_SelfLink(t *testing.T) {
	g := graphFrom(t, `
system:
  name: hr
entities:
  employees:
    count: 6
    attributes:
      id: {type: uuid, unique: true}
      manager_id: {type: link, link_to: hr.employees.id}
`)
	s := New(Options{})
	plan, err := s.Compile(g)
	require.NoError(t, err)
	require.Len(t, plan.Warnings(), 1)
	assert.Contains(t, plan.Warnings()[0], "treated as optional")

	out, err := s.Run(plan)
	require.NoError(t, err)
	rows := out[0].Entities["employees"]
	assert.Nil(t, rows[0]["manager_id"])
	for i := 1; i < len(rows); i++ {
		assert.Contains(t, values(rows[:i], "id"), rows[i]["manager_id"])
	}
}

func TestGenerate_RoundRobinDistribution(t *testing.T) {
	g := graphFrom(t, `
system:
  name: S
entities:
  users:
    count: 3
    attributes:
      id: {type: uuid, unique: true}
  orders:
    count: 6
    attributes:
      user_id:
        type: link
        link_to: S.users.id
        constraints:
          distribution: round_robin
`)
	out, err := New(Options{}).Generate(g)
	require.NoError(t, err)

	ids := values(out[0].Entities["users"], "id")
	for i, o := range out[0].Entities["orders"] {
		assert.Equal(t, ids[i%3], o["user_id"])
	}
}

func TestGenerate_UniqueLink(t *testing.T) {
	doc := `
system:
  name: S
entities:
  users:
    count: 4
    attributes:
      id: {type: uuid, unique: true}
  profiles:
    count: %COUNT%
    attributes:
      user_id: {type: link, link_to: S.users.id, unique: true}
`
	_, err := New(Options{}).Compile(graphFrom(t, strings.Replace(doc, "%COUNT%", "5", 1)))
	assert.ErrorIs(t, err, ErrUniqueExhausted)

	out, err := New(Options{}).Generate(graphFrom(t, strings.Replace(doc, "%COUNT%", "4", 1)))
	require.NoError(t, err)
	assert.ElementsMatch(t,
		values(out[0].Entities["users"], "id"),
		values(out[0].Entities["profiles"], "user_id"))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		attr string
		kind error
	}{
		{"unknown type", `{type: person.shoe_size}`, ErrUnknownType},
		{"inverted range", `{type: int, constraints: {min: 10, max: 1}}`, ErrInvalidConstraint},
		{"constraint for wrong family", `{type: uuid, constraints: {choices: [a]}}`, ErrInvalidConstraint},
		{"missing target", `{type: link, link_to: S.nope.id}`, ErrUnresolvableLink},
		{"malformed target", `{type: link, link_to: S.e}`, ErrUnresolvableLink},
		{"bad distribution", `{type: link, link_to: S.e.id, constraints: {distribution: weighted}}`, ErrInvalidConstraint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graphFrom(t, `
system:
  name: S
entities:
  e:
    count: 2
    attributes:
      id: {type: uuid}
      v: `+tt.attr+`
`)
			_, err := New(Options{}).Compile(g)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var genErr *GenerationError
			require.True(t, errors.As(err, &genErr))
			assert.Equal(t, "S.e.v", genErr.Path())
		})
	}
}

func TestCompile_UnknownTypeSuggestsSiblings(t *testing.T) {
	g := graphFrom(t, `
system:
  name: S
entities:
  e:
    count: 1
    attributes:
      v: {type: person.shoe_size}
`)
	_, err := New(Options{}).Compile(g)
	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Contains(t, genErr.Suggestion, "person.email")
}

func TestRun_MetadataAndProgress(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	var progress []EntityProgress
	s := New(Options{
		Clock:   clock,
		Formats: []string{"json"},
		OnEntity: func(p EntityProgress) {
			progress = append(progress, p)
		},
	})

	out, err := s.Generate(graphFrom(t, usersOrdersYAML))
	require.NoError(t, err)

	meta := out[0].Metadata
	assert.Equal(t, clock.Now(), meta.GeneratedAt)
	assert.Equal(t, []string{"json"}, meta.Formats)

	require.Len(t, progress, 2)
	assert.Equal(t, NodeKey{Schema: "S", Entity: "users"}, progress[0].Key)
	assert.Equal(t, 3, progress[0].Rows)
	assert.Equal(t, 2, progress[1].Index)
	assert.Equal(t, 2, progress[1].Total)
}

func TestRun_FormatsDefaultToSchemaOutput(t *testing.T) {
	out, err := New(Options{}).Generate(graphFrom(t, usersOrdersYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{schema.DefaultOutputFormat}, out[0].Metadata.Formats)
}

func TestGenerate_LinkToOnTypedAttribute(t *testing.T) {
	g := graphFrom(t, `
system:
  name: S
entities:
  users:
    count: 3
    attributes:
      id:
        type: uuid
        unique: true
  orders:
    count: 5
    attributes:
      user_id:
        type: uuid
        link_to: S.users.id
`)
	out, err := New(Options{}).Generate(g)
	require.NoError(t, err)

	sys := out[0]
	assert.Equal(t, []string{"users", "orders"}, sys.Order)
	ids := values(sys.Entities["users"], "id")
	for _, o := range sys.Entities["orders"] {
		assert.Contains(t, ids, o["user_id"])
	}
}

func TestCompile_CardinalityPrecheckFixedLists(t *testing.T) {
	for _, typ := range []string{"address.city", "address.country_code", "finance.currency_code"} {
		t.Run(typ, func(t *testing.T) {
			g := graphFrom(t, `
system:
  name: S
entities:
  e:
    count: 11
    attributes:
      v: {type: `+typ+`, unique: true}
`)
			_, err := New(Options{}).Compile(g)
			assert.ErrorIs(t, err, ErrUniqueExhausted)
			assert.Contains(t, err.Error(), "only 10 unique values possible, 11 requested")
		})
	}
}

func TestGenerate_UniqueFixedListExhaustsEveryValue(t *testing.T) {
	g := graphFrom(t, `
system:
  name: S
entities:
  offices:
    count: 10
    attributes:
      city: {type: address.city, unique: true}
`)
	out, err := New(Options{}).Generate(g)
	require.NoError(t, err)

	got := values(out[0].Entities["offices"], "city")
	assert.ElementsMatch(t, distinct(cities), got)
}

func TestGenerate_DecimalsStayInRange(t *testing.T) {
	g := graphFrom(t, `
system:
  name: S
entities:
  rates:
    count: 200
    attributes:
      f: {type: float, constraints: {min: 0.04, max: 0.06, precision: 1}}
      d: {type: decimal, constraints: {min: 0.04, max: 0.06, precision: 1}}
      p: {type: decimal, constraints: {min: 0.04, max: 0.26, precision: 1}}
`)
	out, err := New(Options{}).Generate(g)
	require.NoError(t, err)

	lo, hi := decimal.RequireFromString("0.04"), decimal.RequireFromString("0.06")
	for _, r := range out[0].Entities["rates"] {
		f := r["f"].(float64)
		assert.True(t, f >= 0.04 && f <= 0.06, "float %v out of range", f)

		d := r["d"].(decimal.Decimal)
		assert.True(t, d.GreaterThanOrEqual(lo) && d.LessThanOrEqual(hi), "decimal %s out of range", d)

		p := r["p"].(decimal.Decimal)
		assert.Contains(t, []string{"0.1", "0.2"}, p.String())
	}
}

func TestGenerate_UniqueDecimalFillsWholeGrid(t *testing.T) {
	g := graphFrom(t, `
system:
  name: S
entities:
  prices:
    count: 30
    attributes:
      amount: {type: decimal, unique: true, constraints: {min: 0, max: 0.29, precision: 2}}
`)
	out, err := New(Options{}).Generate(g)
	require.NoError(t, err)
	assert.Len(t, out[0].Entities["prices"], 30)
}
