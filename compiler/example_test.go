package compiler_test

import (
	"context"
	"fmt"
	"os"

	"github.com/ardnew/rablc/compiler"
	"github.com/ardnew/rablc/template"
)

func ExampleCompiler_Compile() {
	ctx := context.Background()

	c := compiler.New(compiler.MapContext{Path: "/users/show"})

	tpl, err := c.Compile(ctx, `
		attributes :id, :name => :full_name
		child :address { attribute :city }
		attribute :id
	`)
	if err != nil {
		fmt.Println(err)

		return
	}

	if err := tpl.FormatJSON(ctx, os.Stdout, 0); err != nil {
		fmt.Println(err)
	}

	// Output:
	// {"id":"id","full_name":"name","address":{"_data":"address","city":"city"}}
}

func ExampleCompiler_Bind() {
	ctx := context.Background()

	c := compiler.New(compiler.MapContext{
		Assigns: map[string]any{"greeting": "hello"},
	})

	tpl, err := c.Compile(ctx, `node :message { |o| greeting + ", " + o.name }`)
	if err != nil {
		fmt.Println(err)

		return
	}

	spec, _ := tpl.Get("message")

	deferred, ok := spec.(template.Deferred)
	if !ok {
		fmt.Printf("unexpected spec %T\n", spec)

		return
	}

	message := deferred.Computation

	obj := map[string]any{"name": "ada"}

	v, _ := message.Invoke(obj)
	fmt.Println(v)

	c.Bind("greeting", "goodbye")

	v, _ = message.Invoke(obj)
	fmt.Println(v)

	// Output:
	// hello, ada
	// goodbye, ada
}
