// evmrun is a minimal command-line driver for the execution engine. It runs
// a single piece of bytecode against an in-memory state database and prints
// the resulting output, gas usage, and (optionally) a step-by-step trace.
// It performs none of the signature recovery, intrinsic-gas, or
// receipt-construction work a real transaction-level driver would -- it
// exists only to give the engine a runnable entry point.
package main

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ethforge/evmcore/core/state"
	"github.com/ethforge/evmcore/core/types"
	"github.com/ethforge/evmcore/core/vm"
)

var (
	codeFlag = &cli.StringFlag{
		Name:  "code",
		Usage: "hex-encoded contract bytecode to run",
	}
	inputFlag = &cli.StringFlag{
		Name:  "input",
		Usage: "hex-encoded calldata",
	}
	gasFlag = &cli.Uint64Flag{
		Name:  "gas",
		Usage: "gas limit for the call",
		Value: 10_000_000,
	}
	valueFlag = &cli.StringFlag{
		Name:  "value",
		Usage: "decimal wei value sent with the call",
		Value: "0",
	}
	hardforkFlag = &cli.StringFlag{
		Name:  "hardfork",
		Usage: "hardfork rules to execute under (frontier..cancun)",
		Value: "cancun",
	}
	traceFlag = &cli.BoolFlag{
		Name:  "trace",
		Usage: "print a struct-log trace of every executed step",
	}
)

var hardforkByName = map[string]vm.Hardfork{
	"frontier":         vm.Frontier,
	"homestead":        vm.Homestead,
	"tangerinewhistle": vm.TangerineWhistle,
	"spuriousdragon":   vm.SpuriousDragon,
	"byzantium":        vm.Byzantium,
	"constantinople":   vm.Constantinople,
	"istanbul":         vm.Istanbul,
	"berlin":           vm.Berlin,
	"london":           vm.London,
	"merge":            vm.Merge,
	"shanghai":         vm.Shanghai,
	"cancun":           vm.Cancun,
}

func run(ctx *cli.Context) error {
	hf, ok := hardforkByName[ctx.String(hardforkFlag.Name)]
	if !ok {
		return fmt.Errorf("unknown hardfork %q", ctx.String(hardforkFlag.Name))
	}

	code, err := hexArg(ctx.String(codeFlag.Name))
	if err != nil {
		return fmt.Errorf("parsing --code: %w", err)
	}
	input, err := hexArg(ctx.String(inputFlag.Name))
	if err != nil {
		return fmt.Errorf("parsing --input: %w", err)
	}

	value, ok := new(big.Int).SetString(ctx.String(valueFlag.Name), 10)
	if !ok {
		return fmt.Errorf("malformed --value %q", ctx.String(valueFlag.Name))
	}

	sender := types.HexToAddress("0x0a")
	contractAddr := types.HexToAddress("0x0b")

	db := state.NewMemoryStateDB()
	db.CreateAccount(sender)
	db.AddBalance(sender, new(big.Int).Lsh(big.NewInt(1), 128))
	db.CreateAccount(contractAddr)
	db.SetCode(contractAddr, code)

	var tracer *vm.StructLogTracer
	cfg := vm.Config{}
	if ctx.Bool(traceFlag.Name) {
		tracer = vm.NewStructLogTracer()
		cfg.Debug = true
		cfg.Tracer = tracer
	}

	blockCtx := vm.BlockContext{
		GetHash:     func(uint64) types.Hash { return types.Hash{} },
		BlockNumber: big.NewInt(1),
		GasLimit:    30_000_000,
		BaseFee:     big.NewInt(0),
	}
	txCtx := vm.TxContext{Origin: sender, GasPrice: big.NewInt(0)}

	evm := vm.NewEVMWithState(blockCtx, txCtx, cfg, hf, db)
	evm.PreWarmAccessList(sender, &contractAddr)

	ret, gasLeft, err := evm.Call(sender, contractAddr, input, ctx.Uint64(gasFlag.Name), value)

	fmt.Printf("OUT: 0x%x\n", ret)
	fmt.Printf("GAS USED: %d\n", ctx.Uint64(gasFlag.Name)-gasLeft)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
	}

	if tracer != nil {
		for _, l := range tracer.Logs {
			fmt.Printf("pc=%-5d op=%-14s gas=%-10d cost=%-6d depth=%d stack=%v\n",
				l.Pc, l.Op, l.Gas, l.GasCost, l.Depth, l.Stack)
		}
	}

	return nil
}

func hexArg(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return hex.DecodeString(s)
}

func main() {
	app := &cli.App{
		Name:  "evmrun",
		Usage: "run a single piece of EVM bytecode and print the outcome",
		Flags: []cli.Flag{
			codeFlag,
			inputFlag,
			gasFlag,
			valueFlag,
			hardforkFlag,
			traceFlag,
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
