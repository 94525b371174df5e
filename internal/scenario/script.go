package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const scenarioTypeName = "scenario"

// Scenario is an ordered list of steps built by a Lua script.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one scripted action or expectation.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadFile runs a Lua script and returns the Scenario it builds.
//
// The script must return the Scenario value; its name defaults to the file
// name when the script leaves it empty.
func LoadFile(path string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	registerLuaTypes(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

// LoadString runs an in-memory Lua script and returns the Scenario it builds.
func LoadString(name, script string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	registerLuaTypes(state)

	if err := lua.DoString(state, script); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = name
	}
	return scenario, nil
}

func registerLuaTypes(state *lua.State) {
	registerScenarioType(state)
	registerScenarioConstructor(state)
}

func registerScenarioType(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerScenarioConstructor(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	scenario := &Scenario{Name: name}
	state.PushUserData(scenario)
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "open_shift", Function: scenarioOpenShift},
	{Name: "close_shift", Function: scenarioCloseShift},
	{Name: "add_ingredient", Function: scenarioAddIngredient},
	{Name: "consume_ingredient", Function: scenarioConsumeIngredient},
	{Name: "add_recipe", Function: scenarioAddRecipe},
	{Name: "remove_recipe", Function: scenarioRemoveRecipe},
	{Name: "cook", Function: scenarioCook},
	{Name: "preheat_oven", Function: scenarioPreheatOven},
	{Name: "oven_off", Function: scenarioOvenOff},
	{Name: "expect_rejected", Function: scenarioExpectRejected},
	{Name: "expect_stock", Function: scenarioExpectStock},
	{Name: "expect_cooked", Function: scenarioExpectCooked},
	{Name: "expect_oven", Function: scenarioExpectOven},
}

func scenarioOpenShift(state *lua.State) int {
	scenario := checkScenario(state)
	shiftID := lua.CheckString(state, 2)
	name := lua.OptString(state, 3, "")
	appendStep(scenario, "open_shift", map[string]any{"shift_id": shiftID, "name": name})
	return 0
}

func scenarioCloseShift(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "close_shift", nil)
	return 0
}

func scenarioAddIngredient(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "add_ingredient", tableToMap(state, 2))
	return 0
}

func scenarioConsumeIngredient(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "consume_ingredient", tableToMap(state, 2))
	return 0
}

func scenarioAddRecipe(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "add_recipe", tableToMap(state, 2))
	return 0
}

func scenarioRemoveRecipe(state *lua.State) int {
	scenario := checkScenario(state)
	name := lua.CheckString(state, 2)
	appendStep(scenario, "remove_recipe", map[string]any{"name": name})
	return 0
}

func scenarioCook(state *lua.State) int {
	scenario := checkScenario(state)
	recipe := lua.CheckString(state, 2)
	appendStep(scenario, "cook", map[string]any{"recipe": recipe})
	return 0
}

func scenarioPreheatOven(state *lua.State) int {
	scenario := checkScenario(state)
	temperature := lua.CheckInteger(state, 2)
	appendStep(scenario, "preheat_oven", map[string]any{"temperature_c": temperature})
	return 0
}

func scenarioOvenOff(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "oven_off", nil)
	return 0
}

func scenarioExpectRejected(state *lua.State) int {
	scenario := checkScenario(state)
	code := lua.CheckString(state, 2)
	appendStep(scenario, "expect_rejected", map[string]any{"code": code})
	return 0
}

func scenarioExpectStock(state *lua.State) int {
	scenario := checkScenario(state)
	name := lua.CheckString(state, 2)
	quantity := lua.CheckInteger(state, 3)
	appendStep(scenario, "expect_stock", map[string]any{"name": name, "quantity": quantity})
	return 0
}

func scenarioExpectCooked(state *lua.State) int {
	scenario := checkScenario(state)
	count := lua.CheckInteger(state, 2)
	appendStep(scenario, "expect_cooked", map[string]any{"count": count})
	return 0
}

func scenarioExpectOven(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "expect_oven", tableToMap(state, 2))
	return 0
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) int {
	if scenario == nil {
		return -1
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
	return len(scenario.Steps) - 1
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	case lua.TypeUserData:
		return state.ToUserData(index)
	default:
		return nil
	}
}

func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}

	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}

	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
