package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
)

type JSON = map[string]interface{}

// rowsOf decodes a stream of rows and returns them in order.
func rowsOf(resp *apitest.Response) []JSON {
	result := []JSON{}
	d := json.NewDecoder(bytes.NewReader(resp.BodyBytes()))
	for {
		row := JSON{}
		err := d.Decode(&row)
		if err == io.EOF {
			break
		}
		if err != nil {
			panic(err)
		}
		result = append(result, row)
	}
	return result
}

func idsOf(rows []JSON) []interface{} {
	ids := []interface{}{}
	for _, row := range rows {
		ids = append(ids, row["id"])
	}
	return ids
}

func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	a.Alternative("Create table", func(a *biff.A) {
		resp := apiRequest("POST", "/tables").
			WithBodyJson(JSON{
				"name": "people",
			}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		biff.AssertEqualJson(resp.BodyJson(), JSON{
			"name":    "people",
			"total":   0,
			"indexes": 0,
		})

		a.Alternative("Create table twice", func(a *biff.A) {
			resp := apiRequest("POST", "/tables").
				WithBodyJson(JSON{
					"name": "people",
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusConflict)
		})

		a.Alternative("Retrieve table", func(a *biff.A) {
			resp := apiRequest("GET", "/tables/people").Do()

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), JSON{
				"name":    "people",
				"total":   0,
				"indexes": 0,
			})
		})

		a.Alternative("List tables", func(a *biff.A) {
			resp := apiRequest("GET", "/tables").Do()

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), []JSON{
				{
					"name":    "people",
					"total":   0,
					"indexes": 0,
				},
			})
		})

		a.Alternative("Drop table", func(a *biff.A) {
			resp := apiRequest("POST", "/tables/people:dropTable").Do()

			biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

			a.Alternative("Get dropped table", func(a *biff.A) {
				resp := apiRequest("GET", "/tables/people").Do()

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})
		})

		a.Alternative("Insert many", func(a *biff.A) {

			body := ""
			for i := 1; i <= 10; i++ {
				city := "Paris"
				if i%2 == 1 {
					city = "Madrid"
				}
				person, _ := json.Marshal(JSON{
					"name": fmt.Sprintf("p%d", i),
					"age":  i * 10,
					"city": city,
				})
				body += string(person) + "\n"
			}
			resp := apiRequest("POST", "/tables/people:insert").
				WithBodyString(body).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusCreated)
			rows := rowsOf(resp)
			biff.AssertEqual(len(rows), 10)
			biff.AssertEqualJson(rows[0], JSON{
				"id":      1,
				"payload": JSON{"name": "p1", "age": 10, "city": "Madrid"},
			})

			a.Alternative("Create index", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/people:createIndex").
					WithBodyJson(JSON{"name": "by-age", "fields": []string{"age"}}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusCreated)
				biff.AssertEqualJson(resp.BodyJson(), JSON{
					"name":   "by-age",
					"fields": []string{"age"},
					"unique": false,
					"sparse": false,
					"keys":   10,
					"rows":   10,
				})

				a.Alternative("Find by ranges with pagination", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/people:find").
						WithBodyJson(JSON{
							"index": "by-age",
							"ranges": []JSON{
								{"from": 30, "to": 80, "exclude_to": true},
							},
							"reverse": true,
							"skip":    1,
							"limit":   2,
						}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(idsOf(rowsOf(resp)), []int{6, 5})
				})

				a.Alternative("Find by several ranges", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/people:find").
						WithBodyJson(JSON{
							"index": "by-age",
							"ranges": []JSON{
								{"from": 90},
								{"to": 20},
								{"from": 10, "to": 10},
							},
						}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(idsOf(rowsOf(resp)), []int{1, 2, 9, 10})
				})

				a.Alternative("Find by filter", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/people:find").
						WithBodyJson(JSON{
							"filter": JSON{"age": JSON{"$gte": 90}},
						}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(idsOf(rowsOf(resp)), []int{9, 10})
				})

				a.Alternative("Find ordered", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/people:find").
						WithBodyJson(JSON{
							"filter":   JSON{"city": "Paris"},
							"order_by": "-age",
							"limit":    3,
						}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(idsOf(rowsOf(resp)), []int{10, 8, 6})
				})

				a.Alternative("Explain", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/people:explain").
						WithBodyJson(JSON{
							"filter": JSON{"age": JSON{"$in": []int{20, 40}}},
						}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					plan := resp.BodyJsonMap()
					biff.AssertEqual(plan["index"], "by-age")
					biff.AssertEqual(plan["cost"], 2.0)
				})

				a.Alternative("Get index", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/people:getIndex").
						WithBodyJson(JSON{
							"name":   "by-age",
							"ranges": []JSON{{"to": 50}},
						}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(resp.BodyJson(), JSON{
						"name": "by-age",
						"options": JSON{
							"name":   "by-age",
							"fields": []string{"age"},
							"unique": false,
							"sparse": false,
						},
						"stats":    JSON{"keys": 10, "rows": 10},
						"min":      10,
						"min_rows": []int{1},
						"max":      100,
						"max_rows": []int{10},
						"cost":     5,
					})
				})

				a.Alternative("List indexes", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/people:listIndexes").Do()

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(resp.BodyJson(), []JSON{
						{
							"name":   "by-age",
							"fields": []string{"age"},
							"unique": false,
							"sparse": false,
							"keys":   10,
							"rows":   10,
						},
					})
				})

				a.Alternative("Patch", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/people:patch").
						WithBodyJson(JSON{
							"filter": JSON{"age": 10},
							"patch":  JSON{"age": 11},
						}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(rowsOf(resp), []JSON{
						{
							"id":      1,
							"payload": JSON{"name": "p1", "age": 11, "city": "Madrid"},
						},
					})

					a.Alternative("Find patched", func(a *biff.A) {
						resp := apiRequest("POST", "/tables/people:find").
							WithBodyJson(JSON{
								"index":  "by-age",
								"ranges": []JSON{{"from": 11, "to": 11}},
							}).Do()

						biff.AssertEqualJson(idsOf(rowsOf(resp)), []int{1})
					})
				})

				a.Alternative("Remove", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/people:remove").
						WithBodyJson(JSON{
							"index":  "by-age",
							"ranges": []JSON{{"to": 30}},
						}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(idsOf(rowsOf(resp)), []int{1, 2, 3})

					resp = apiRequest("GET", "/tables/people").Do()
					biff.AssertEqual(resp.BodyJsonMap()["total"], 7.0)
				})

				a.Alternative("Drop index", func(a *biff.A) {
					resp := apiRequest("POST", "/tables/people:dropIndex").
						WithBodyJson(JSON{"name": "by-age"}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

					resp = apiRequest("POST", "/tables/people:getIndex").
						WithBodyJson(JSON{"name": "by-age"}).Do()
					biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
				})
			})

			a.Alternative("Create unique index with duplicates", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/people:createIndex").
					WithBodyJson(JSON{"name": "by-city", "fields": []string{"city"}, "unique": true}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusConflict)
			})

			a.Alternative("Insert unique conflict", func(a *biff.A) {
				apiRequest("POST", "/tables/people:createIndex").
					WithBodyJson(JSON{"name": "by-name", "fields": []string{"name"}, "unique": true}).Do()

				resp := apiRequest("POST", "/tables/people:insert").
					WithBodyJson(JSON{"name": "p1"}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusConflict)
				biff.AssertTrue(strings.Contains(resp.BodyString(), "index conflict"))
			})

			a.Alternative("Truncate", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/people:truncate").Do()

				biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

				resp = apiRequest("GET", "/tables/people").Do()
				biff.AssertEqual(resp.BodyJsonMap()["total"], 0.0)
			})

			a.Alternative("Snapshot", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/people:snapshot").Do()

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqual(resp.BodyJsonMap()["total"], 10.0)
			})

			a.Alternative("Find with unknown index", func(a *biff.A) {
				resp := apiRequest("POST", "/tables/people:find").
					WithBodyJson(JSON{"index": "by-shoe-size"}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})
		})
	})

	a.Alternative("Insert on not existing table", func(a *biff.A) {
		resp := apiRequest("POST", "/tables/other:insert").
			WithBodyJson(JSON{"name": "Fulanez"}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)

		resp = apiRequest("GET", "/tables").Do()
		biff.AssertEqualJson(resp.BodyJson(), []JSON{
			{
				"name":    "other",
				"total":   1,
				"indexes": 0,
			},
		})
	})

	a.Alternative("Find on not existing table", func(a *biff.A) {
		resp := apiRequest("POST", "/tables/other:find").
			WithBodyJson(JSON{}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
	})

	a.Alternative("Malformed JSON", func(a *biff.A) {
		resp := apiRequest("POST", "/tables").
			WithBodyString(`{"name": nope}`).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})
}
