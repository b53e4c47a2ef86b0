package seeder

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DataGenerator produces attribute values from a single seeded source. All
// randomness of one schema flows through one DataGenerator, so the call order
// fully determines the output.
type DataGenerator struct {
	rand    *rand.Rand
	counter int
	title   cases.Caser
}

func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rand:  rand.New(rand.NewSource(seed)),
		title: cases.Title(language.English),
	}
}

type generateFunc func(g *DataGenerator, c Constraints) (any, error)

type provider struct {
	family   family
	defaults Constraints
	generate generateFunc
	// space lists every value the provider can produce, for providers that
	// draw from a small fixed set.
	space func(Constraints) []any
}

var providers = map[string]provider{
	"uuid":    {family: familyPlain, generate: (*DataGenerator).uuid},
	"boolean": {family: familyPlain, generate: (*DataGenerator).boolean, space: boolSpace},
	"bool":    {family: familyPlain, generate: (*DataGenerator).boolean, space: boolSpace},
	"choice":  {family: familyChoice, generate: (*DataGenerator).choice},

	"int":             {family: familyInt, defaults: IntRange{Min: 1, Max: 100000}, generate: (*DataGenerator).integer},
	"integer":         {family: familyInt, defaults: IntRange{Min: 1, Max: 100000}, generate: (*DataGenerator).integer},
	"numeric.integer": {family: familyInt, defaults: IntRange{Min: 1, Max: 100000}, generate: (*DataGenerator).integer},
	"person.age":      {family: familyInt, defaults: IntRange{Min: 18, Max: 80}, generate: (*DataGenerator).integer},

	"float":           {family: familyDecimal, defaults: DecimalRange{Max: 1000, Precision: 2}, generate: (*DataGenerator).float},
	"numeric.float":   {family: familyDecimal, defaults: DecimalRange{Max: 1000, Precision: 2}, generate: (*DataGenerator).float},
	"decimal":         {family: familyDecimal, defaults: DecimalRange{Max: 1000, Precision: 2}, generate: (*DataGenerator).decimal},
	"numeric.decimal": {family: familyDecimal, defaults: DecimalRange{Max: 1000, Precision: 2}, generate: (*DataGenerator).decimal},
	"finance.price":   {family: familyDecimal, defaults: DecimalRange{Min: 1, Max: 500, Precision: 2}, generate: (*DataGenerator).decimal},

	"string":         {family: familyText, defaults: TextShape{Length: 10}, generate: (*DataGenerator).word, space: wordSpace},
	"text":           {family: familyText, defaults: TextShape{Length: 10}, generate: (*DataGenerator).word, space: wordSpace},
	"text.word":      {family: familyText, generate: (*DataGenerator).word, space: wordSpace},
	"text.sentence":  {family: familyText, defaults: TextShape{Words: 8}, generate: (*DataGenerator).sentence},
	"text.paragraph": {family: familyText, defaults: TextShape{Words: 40}, generate: (*DataGenerator).paragraph},

	"datetime.datetime": {family: familyDate, generate: (*DataGenerator).datetime},
	"datetime.date":     {family: familyDate, generate: (*DataGenerator).date},
	"datetime.time":     {family: familyPlain, generate: (*DataGenerator).clock, space: clockSpace},

	"person.full_name":    {family: familyPlain, generate: plain((*DataGenerator).generateName)},
	"person.first_name":   {family: familyPlain, generate: plain((*DataGenerator).generateFirstName), space: listSpace(firstNames)},
	"person.last_name":    {family: familyPlain, generate: plain((*DataGenerator).generateLastName), space: listSpace(lastNames)},
	"person.email":        {family: familyPlain, generate: plain((*DataGenerator).generateEmail)},
	"person.phone_number": {family: familyPlain, generate: plain((*DataGenerator).generatePhone)},
	"person.phone":        {family: familyPlain, generate: plain((*DataGenerator).generatePhone)},

	"address.address":      {family: familyPlain, generate: plain((*DataGenerator).generateAddress)},
	"address.street_name":  {family: familyPlain, generate: plain((*DataGenerator).generateStreet)},
	"address.city":         listProvider(cities),
	"address.state":        listProvider(states),
	"address.country":      listProvider(countries),
	"address.country_code": listProvider(countryCodes),
	"address.postal_code":  {family: familyPlain, generate: plain((*DataGenerator).generatePostalCode)},

	"internet.url":         {family: familyPlain, generate: plain((*DataGenerator).generateURL)},
	"internet.domain_name": {family: familyPlain, generate: plain((*DataGenerator).generateDomain)},
	"internet.ip_v4":       {family: familyPlain, generate: plain((*DataGenerator).generateIPv4)},

	"finance.currency_code": listProvider(currencyCodes),
	"code.ean13":            {family: familyPlain, generate: plain((*DataGenerator).generateEAN13)},
}

func plain(fn func(*DataGenerator) string) generateFunc {
	return func(g *DataGenerator, _ Constraints) (any, error) {
		return fn(g), nil
	}
}

func pick(list []string) generateFunc {
	return func(g *DataGenerator, _ Constraints) (any, error) {
		return list[g.rand.Intn(len(list))], nil
	}
}

func listProvider(list []string) provider {
	return provider{family: familyPlain, generate: pick(list), space: listSpace(list)}
}

func listSpace(list []string) func(Constraints) []any {
	return func(Constraints) []any {
		return distinct(list)
	}
}

func distinct(list []string) []any {
	seen := make(map[string]bool, len(list))
	out := make([]any, 0, len(list))
	for _, v := range list {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func boolSpace(Constraints) []any {
	return []any{false, true}
}

// wordSpace applies the length cap, so truncated words that collide count once.
func wordSpace(c Constraints) []any {
	shape, _ := c.(TextShape)
	truncated := make([]string, len(words))
	for i, w := range words {
		truncated[i] = truncate(w, shape.Length)
	}
	return distinct(truncated)
}

func clockSpace(Constraints) []any {
	out := make([]any, 0, 24*60*60)
	for secs := 0; secs < 24*60*60; secs++ {
		out = append(out, formatClock(secs))
	}
	return out
}

func lookupProvider(typ string) (provider, bool) {
	p, ok := providers[typ]
	return p, ok
}

// SupportedTypes lists every attribute type identifier, including "link".
func SupportedTypes() []string {
	types := make([]string, 0, len(providers)+1)
	for t := range providers {
		types = append(types, t)
	}
	types = append(types, "link")
	sort.Strings(types)
	return types
}

func (g *DataGenerator) Generate(p provider, c Constraints) (any, error) {
	return p.generate(g, c)
}

// Intn exposes the generator's source to link resolution so that link picks
// share the schema's deterministic sequence.
func (g *DataGenerator) Intn(n int) int {
	return g.rand.Intn(n)
}

func (g *DataGenerator) uuid(Constraints) (any, error) {
	id, err := uuid.NewRandomFromReader(g.rand)
	if err != nil {
		return nil, fmt.Errorf("failed to generate uuid: %w", err)
	}
	return id.String(), nil
}

func (g *DataGenerator) boolean(Constraints) (any, error) {
	return g.rand.Intn(2) == 1, nil
}

func (g *DataGenerator) choice(c Constraints) (any, error) {
	set, ok := c.(ChoiceSet)
	if !ok || len(set.Choices) == 0 {
		return nil, fmt.Errorf("choice requires a non-empty choice set")
	}
	return set.Choices[g.rand.Intn(len(set.Choices))], nil
}

func (g *DataGenerator) integer(c Constraints) (any, error) {
	r, _ := c.(IntRange)
	if span := r.Max - r.Min + 1; span > 0 {
		return r.Min + g.rand.Int63n(span), nil
	}
	// the range is wider than int63
	width := uint64(r.Max) - uint64(r.Min) + 1
	if width == 0 {
		return int64(g.rand.Uint64()), nil
	}
	return r.Min + int64(g.rand.Uint64()%width), nil
}

// randomDecimal samples [Min, Max] and rounds to Precision. A rounded value
// that leaves the range is moved to the nearest grid point inside it, or to
// the bound itself when no grid point lies in range.
func (g *DataGenerator) randomDecimal(r DecimalRange) decimal.Decimal {
	v := r.Min + g.rand.Float64()*(r.Max-r.Min)
	d := decimal.NewFromFloat(v).Round(r.Precision)

	lo, hi := decimal.NewFromFloat(r.Min), decimal.NewFromFloat(r.Max)
	switch {
	case d.LessThan(lo):
		d = lo.RoundCeil(r.Precision)
		if d.GreaterThan(hi) {
			d = lo
		}
	case d.GreaterThan(hi):
		d = hi.RoundFloor(r.Precision)
		if d.LessThan(lo) {
			d = hi
		}
	}
	return d
}

func (g *DataGenerator) float(c Constraints) (any, error) {
	r, _ := c.(DecimalRange)
	f, _ := g.randomDecimal(r).Float64()
	return f, nil
}

func (g *DataGenerator) decimal(c Constraints) (any, error) {
	r, _ := c.(DecimalRange)
	return g.randomDecimal(r), nil
}

func (g *DataGenerator) word(c Constraints) (any, error) {
	shape, _ := c.(TextShape)
	w := g.generateWord()
	if shape.Length > 0 && len(w) > shape.Length {
		w = w[:shape.Length]
	}
	return w, nil
}

func (g *DataGenerator) sentence(c Constraints) (any, error) {
	shape, _ := c.(TextShape)
	return truncate(g.generateSentence(shape.Words), shape.Length), nil
}

func (g *DataGenerator) paragraph(c Constraints) (any, error) {
	shape, _ := c.(TextShape)
	var sentences []string
	for remaining := shape.Words; remaining > 0; {
		n := 6 + g.rand.Intn(7)
		if n > remaining {
			n = remaining
		}
		sentences = append(sentences, g.generateSentence(n))
		remaining -= n
	}
	return truncate(strings.Join(sentences, " "), shape.Length), nil
}

func (g *DataGenerator) randomTime(c Constraints) time.Time {
	r, ok := c.(DateRange)
	if !ok {
		r = DateRange{Start: defaultDateStart, End: defaultDateEnd}
	}
	span := int64(r.End.Sub(r.Start) / time.Second)
	return r.Start.Add(time.Duration(g.rand.Int63n(span+1)) * time.Second)
}

func (g *DataGenerator) datetime(c Constraints) (any, error) {
	return g.randomTime(c), nil
}

func (g *DataGenerator) date(c Constraints) (any, error) {
	return g.randomTime(c).Format(time.DateOnly), nil
}

func (g *DataGenerator) clock(Constraints) (any, error) {
	return formatClock(g.rand.Intn(24 * 60 * 60)), nil
}

func formatClock(secs int) string {
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

var (
	firstNames = []string{
		"John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry",
		"Isla", "Jack", "Karen", "Liam", "Mia", "Noah", "Olivia", "Paul", "Quinn", "Ruby",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez",
		"Lopez", "Wilson", "Anderson", "Taylor", "Thomas", "Moore", "Jackson", "Martin", "Lee", "Clark",
	}
	words = []string{
		"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta",
		"river", "stone", "maple", "harbor", "signal", "vector", "lantern", "meadow",
		"copper", "silver", "orbit", "prairie", "summit", "canyon", "willow", "ember",
	}
	domains      = []string{"example.com", "test.com", "demo.com", "mail.com"}
	tlds         = []string{"com", "org", "net", "io", "dev"}
	streetTypes  = []string{"Street", "Avenue", "Road", "Lane", "Boulevard", "Drive"}
	cities       = []string{"Springfield", "Riverside", "Franklin", "Greenville", "Fairview", "Madison", "Georgetown", "Salem", "Clinton", "Arlington"}
	states       = []string{"California", "Texas", "New York", "Florida", "Illinois", "Ohio", "Georgia", "Washington", "Oregon", "Colorado"}
	countries    = []string{"United States", "Canada", "United Kingdom", "Germany", "France", "Spain", "Italy", "Japan", "Australia", "Brazil"}
	countryCodes = []string{"US", "CA", "GB", "DE", "FR", "ES", "IT", "JP", "AU", "BR"}

	currencyCodes = []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "CNY", "SEK", "NZD"}
)

func (g *DataGenerator) generateFirstName() string {
	return firstNames[g.rand.Intn(len(firstNames))]
}

func (g *DataGenerator) generateLastName() string {
	return lastNames[g.rand.Intn(len(lastNames))]
}

func (g *DataGenerator) generateName() string {
	return g.generateFirstName() + " " + g.generateLastName()
}

func (g *DataGenerator) generateEmail() string {
	g.counter++
	first := strings.ToLower(g.generateFirstName())
	last := strings.ToLower(g.generateLastName())
	return fmt.Sprintf("%s.%s%d@%s", first, last, g.rand.Intn(10000), domains[g.rand.Intn(len(domains))])
}

func (g *DataGenerator) generateWord() string {
	return words[g.rand.Intn(len(words))]
}

func (g *DataGenerator) generateSentence(n int) string {
	if n <= 0 {
		n = 1
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = g.generateWord()
	}
	parts[0] = g.title.String(parts[0])
	return strings.Join(parts, " ") + "."
}

func (g *DataGenerator) generateURL() string {
	return fmt.Sprintf("https://%s/%s/%d", g.generateDomain(), g.generateWord(), g.rand.Intn(1000))
}

func (g *DataGenerator) generateDomain() string {
	return g.generateWord() + g.generateWord() + "." + tlds[g.rand.Intn(len(tlds))]
}

func (g *DataGenerator) generateIPv4() string {
	return fmt.Sprintf("%d.%d.%d.%d", g.rand.Intn(223)+1, g.rand.Intn(256), g.rand.Intn(256), g.rand.Intn(254)+1)
}

func (g *DataGenerator) generatePhone() string {
	return fmt.Sprintf("+1-%03d-%03d-%04d", g.rand.Intn(1000), g.rand.Intn(1000), g.rand.Intn(10000))
}

func (g *DataGenerator) generateStreet() string {
	return g.title.String(g.generateWord()) + " " + streetTypes[g.rand.Intn(len(streetTypes))]
}

func (g *DataGenerator) generatePostalCode() string {
	return fmt.Sprintf("%05d", g.rand.Intn(100000))
}

func (g *DataGenerator) generateAddress() string {
	return fmt.Sprintf("%d %s, %s, %s %s",
		g.rand.Intn(9999)+1, g.generateStreet(),
		cities[g.rand.Intn(len(cities))], states[g.rand.Intn(len(states))], g.generatePostalCode())
}

func (g *DataGenerator) generateEAN13() string {
	digits := make([]byte, 13)
	sum := 0
	for i := 0; i < 12; i++ {
		d := g.rand.Intn(10)
		digits[i] = byte('0' + d)
		if i%2 == 0 {
			sum += d
		} else {
			sum += 3 * d
		}
	}
	digits[12] = byte('0' + (10-sum%10)%10)
	return string(digits)
}

// fallbackValue is substituted when a required attribute keeps producing empty
// values. It is never empty.
func (g *DataGenerator) fallbackValue(attr string) string {
	g.counter++
	return fmt.Sprintf("%s_%d", attr, g.counter)
}

func truncate(s string, n int) string {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
