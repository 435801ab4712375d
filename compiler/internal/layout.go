package internal

// WordSize is the size in bytes of every value: int, bool and object reference.
const WordSize = 4

type FieldLayout struct {
	Name  string
	Index int
	TP    VariableType
	// The literal every new object starts with.
	Init LiteralAst
}

// Offset is the byte offset of the field from the object base address.
func (field FieldLayout) Offset() int {
	return field.Index * WordSize
}

type classLayout struct {
	fields []FieldLayout
	index  map[string]int
}

// LayoutTable maps every class to the layout of its objects: fields in declaration order, one word each. It is
// built once from a checked program and never changes afterwards.
type LayoutTable struct {
	classes map[string]*classLayout
}

func NewLayoutTable(checked *BodyAst) LayoutTable {
	table := LayoutTable{classes: map[string]*classLayout{}}
	for _, classDef := range checked.ClassDefs {
		layout := &classLayout{index: map[string]int{}}
		for i, field := range classDef.ClassBody.VarInits {
			layout.fields = append(layout.fields, FieldLayout{
				Name:  field.VarName,
				Index: i,
				TP:    field.VarType,
				Init:  *field.Init,
			})
			layout.index[field.VarName] = i
		}
		table.classes[classDef.ClassName] = layout
	}
	return table
}

func (table LayoutTable) Field(className, fieldName string) (FieldLayout, bool) {
	layout, ok := table.classes[className]
	if !ok {
		return FieldLayout{}, false
	}
	i, ok := layout.index[fieldName]
	if !ok {
		return FieldLayout{}, false
	}
	return layout.fields[i], true
}

// Fields returns a copy of the fields of className in declaration order.
func (table LayoutTable) Fields(className string) []FieldLayout {
	layout, ok := table.classes[className]
	if !ok {
		return nil
	}
	fields := make([]FieldLayout, len(layout.fields))
	copy(fields, layout.fields)
	return fields
}

// Size is the number of bytes an object of className takes.
func (table LayoutTable) Size(className string) int {
	layout, ok := table.classes[className]
	if !ok {
		return 0
	}
	return len(layout.fields) * WordSize
}
