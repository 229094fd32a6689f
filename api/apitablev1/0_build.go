package apitablev1

import (
	"github.com/fulldump/box"
)

func BuildV1Table(v1 *box.R) *box.R {

	tables := v1.Resource("/tables").
		WithActions(
			box.Get(listTables),
			box.Post(createTable),
		)

	v1.Resource("/tables/{tableName}").
		WithActions(
			box.Get(getTable),
			box.ActionPost(insert),
			box.ActionPost(find),
			box.ActionPost(explain),
			box.ActionPost(patch),
			box.ActionPost(remove),
			box.ActionPost(truncate),
			box.ActionPost(dropTable),
			box.ActionPost(snapshot),
			box.ActionPost(createIndex),
			box.ActionPost(listIndexes),
			box.ActionPost(getIndex),
			box.ActionPost(dropIndex),
		)

	return tables
}
