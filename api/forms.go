package api

import (
	"fmt"
	"net/url"
	"reflect"

	"github.com/google/go-querystring/query"
)

// LoginForm is the payload of users/login.
type LoginForm struct {
	Email    string `url:"email"`
	Password string `url:"password"`
}

// RegisterForm is the payload of users/register. Password2 is the
// confirmation field; the server rejects mismatches.
type RegisterForm struct {
	Email     string `url:"email"`
	Password  string `url:"password"`
	Password2 string `url:"password2"`
}

// EntryForm is the payload of entries/add. Date is yyyy-mm-dd, Distance is
// in kilometres and Time is whole minutes; the server reads time as an
// integer and stores 0 for anything else.
type EntryForm struct {
	Date     string  `url:"date"`
	Distance float64 `url:"distance"`
	Time     int     `url:"time"`
}

// FilterOptions are the query parameters of entries/filter.
type FilterOptions struct {
	From string `url:"from,omitempty"`
	To   string `url:"to,omitempty"`
}

// encodeForm turns a struct with "url" tags into form values. A nil
// pointer encodes to no values.
func encodeForm(form any) (url.Values, error) {
	v := reflect.ValueOf(form)
	if !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return nil, nil
	}

	values, err := query.Values(form)
	if err != nil {
		return nil, fmt.Errorf("encoding form: %w", err)
	}
	return values, nil
}
