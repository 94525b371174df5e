// Package scenario runs Lua-scripted kitchen scenarios against the command
// engine.
//
// A script builds a Scenario value through the registered Lua types:
//
//	local s = Scenario.new("morning bake")
//	s:open_shift("morning")
//	s:add_ingredient{name = "Flour", quantity = 500, unit = "g"}
//	s:add_recipe{name = "Bread", cook_time_minutes = 40,
//	    items = {{ingredient = "flour", quantity = 300}}}
//	s:cook("Bread")
//	s:expect_stock("Flour", 200)
//	s:expect_cooked(1)
//	return s
//
// The runner dispatches each step through the engine and reports every
// expectation that does not hold.
package scenario
