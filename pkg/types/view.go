package types

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Filter operators. All rules in a view are combined with AND.
const (
	OpContains       = "contains"
	OpDoesNotContain = "does-not-contain"
	OpIs             = "is"
	OpIsNot          = "is-not"
	OpIsEmpty        = "is-empty"
	OpIsNotEmpty     = "is-not-empty"
)

// validOperators is the set of recognized filter operators. The value
// reports whether the operator reads the rule's Value.
var validOperators = map[string]bool{
	OpContains:       true,
	OpDoesNotContain: true,
	OpIs:             true,
	OpIsNot:          true,
	OpIsEmpty:        false,
	OpIsNotEmpty:     false,
}

// SortRule orders rows by one column. Position in the rule list is the
// tie-break precedence: the first rule is the primary sort.
type SortRule struct {
	ColumnID  string `json:"column_id"`
	Direction string `json:"direction"`
}

// Validate checks the rule's column and direction.
func (r SortRule) Validate() error {
	if r.ColumnID == "" {
		return ErrInvalidID
	}
	if r.Direction != SortAsc && r.Direction != SortDesc {
		return ErrInvalidDirection
	}
	return nil
}

// FilterRule keeps rows whose cell in ColumnID satisfies Operator.
type FilterRule struct {
	ColumnID string `json:"column_id"`
	Operator string `json:"operator"`
	Value    string `json:"value,omitempty"`
}

// Validate checks the rule's column and operator.
func (r FilterRule) Validate() error {
	if r.ColumnID == "" {
		return ErrInvalidID
	}
	if _, ok := validOperators[r.Operator]; !ok {
		return ErrInvalidOperator
	}
	return nil
}

// UsesValue reports whether the operator compares against Value.
// is-empty and is-not-empty ignore it.
func (r FilterRule) UsesValue() bool {
	return validOperators[r.Operator]
}

// View is a saved configuration of one table: sort rules, filter rules and
// hidden fields. SearchQuery is ephemeral and never persisted.
type View struct {
	ViewID      string       `json:"view_id"`
	TableID     string       `json:"table_id"`
	Name        string       `json:"name"`
	Sort        []SortRule   `json:"sort"`
	Filters     []FilterRule `json:"filters"`
	Hidden      []string     `json:"hidden"`
	SearchQuery string       `json:"-"`
}

// Validate checks every rule in the view.
func (v View) Validate() error {
	if v.Name == "" {
		return ErrInvalidName
	}
	for _, s := range v.Sort {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	for _, f := range v.Filters {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}
