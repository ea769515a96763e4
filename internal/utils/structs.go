package utils

import "reflect"

var (
	ColumnTag = "db"
	// WriteTag set to "-" keeps a column out of StructToMap, for values
	// that only exist on reads (joins, computed columns).
	WriteTag = "write"
)

func StructTagValues(input any) []string {

	targetValue := reflect.ValueOf(input)
	if targetValue.Kind() == reflect.Ptr {
		targetValue = targetValue.Elem()
	}

	if targetValue.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	targetType := targetValue.Type()

	result := make([]string, 0, targetValue.NumField())

	for i := 0; i < targetValue.NumField(); i++ {

		if targetType.Field(i).PkgPath != "" {
			continue
		}

		tagValue := targetType.Field(i).Tag.Get(ColumnTag)
		if tagValue == "" || tagValue == "-" {
			continue
		}

		result = append(result, tagValue)

	}

	return result

}

// WritableTagValues is StructTagValues without the read-only columns.
func WritableTagValues(input any) []string {
	all := StructTagValues(input)
	writable := StructToMap(input)

	result := make([]string, 0, len(all))
	for _, column := range all {
		if _, ok := writable[column]; ok {
			result = append(result, column)
		}
	}

	return result
}

func StructToMap(input any) map[string]any {

	result := make(map[string]any)

	itemValue := reflect.ValueOf(input)
	if itemValue.Kind() == reflect.Ptr {
		itemValue = itemValue.Elem()
	}

	if itemValue.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	itemType := itemValue.Type()

	for i := 0; i < itemValue.NumField(); i++ {

		field := itemType.Field(i)
		if field.PkgPath != "" {
			continue
		}

		tagValue := field.Tag.Get(ColumnTag)
		if tagValue == "" || tagValue == "-" {
			continue
		}

		if field.Tag.Get(WriteTag) == "-" {
			continue
		}

		result[tagValue] = itemValue.Field(i).Interface()

	}

	return result

}

// Prefixed qualifies each column with a table alias.
func Prefixed(alias string, columns []string) []string {
	result := make([]string, len(columns))
	for i, column := range columns {
		result[i] = alias + "." + column
	}
	return result
}
