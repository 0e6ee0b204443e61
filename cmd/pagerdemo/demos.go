package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	wp "github.com/zhangzqs/windowpager-go"
	"github.com/zhangzqs/windowpager-go/source/localstore"
	"github.com/zhangzqs/windowpager-go/source/remote"
)

var (
	scrollSteps int
	jumpPage    int
)

var simpleCmd = &cobra.Command{
	Use:   "simple",
	Short: "Scroll forward through the catalogue one page at a time",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		source := wp.NewLoggingDataSource[localstore.Film, int](remote.New(store.Source(), cfg.Remote), nil)
		pager, err := wp.NewSimplePager[localstore.Film, int](source, 0, cfg.Pager)
		if err != nil {
			return err
		}
		defer pager.Destroy()
		drainErrors(pager.Errors())

		pager.OnNoItemVisible()
		if err := pager.Settle(ctx); err != nil {
			return err
		}
		fmt.Printf("start: %s\n", describe(pager.Data().Value()))

		// the index anchor moves with the window, so aim at its last item
		for step := 1; step <= scrollSteps; step++ {
			visible := len(pager.Data().Value()) - 1
			pager.OnItemVisible(visible)
			if err := pager.Settle(ctx); err != nil {
				return err
			}
			fmt.Printf("step %d (visible %d): %s\n", step, visible, describe(pager.Data().Value()))
		}
		return nil
	},
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Show films after 2003, then narrow to films after 2005",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		byID := wp.IdentityBy(func(f localstore.Film) string { return f.ID })
		after := func(year int) func(localstore.Film) bool {
			return func(f localstore.Film) bool { return f.Year > year }
		}
		pager, err := wp.NewFilterablePager[localstore.Film, int, string](remote.New(store.Source(), cfg.Remote), 0, cfg.Pager, byID, after(2003))
		if err != nil {
			return err
		}
		defer pager.Destroy()
		drainErrors(pager.Errors())

		pager.OnNoItemVisible()
		if err := pager.Settle(ctx); err != nil {
			return err
		}
		fmt.Printf("after 2003: %s\n", describe(pager.Data().Value()))

		pager.UpdateFilterPredicate(after(2005))
		if err := pager.Settle(ctx); err != nil {
			return err
		}
		fmt.Printf("after 2005: %s\n", describe(pager.Data().Value()))
		return nil
	},
}

var jumpCmd = &cobra.Command{
	Use:   "jump",
	Short: "Jump straight to a page of the catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		pageSize := cfg.Pager.PageSize
		pager, err := wp.NewJumpablePager[localstore.Film, int, int](remote.New(store.Source(), cfg.Remote), 0, cfg.Pager, wp.PageByOffset[localstore.Film, int](pageSize))
		if err != nil {
			return err
		}
		defer pager.Destroy()
		drainErrors(pager.Errors())

		pager.JumpTo(jumpPage)
		if err := pager.Settle(ctx); err != nil {
			return err
		}
		printSlots(pager.Data().Value(), pager.CurrentPage().Value())

		// scroll to the end of the page jumped to
		pager.OnItemVisible((jumpPage+1)*pageSize - 1)
		if err := pager.Settle(ctx); err != nil {
			return err
		}
		printSlots(pager.Data().Value(), pager.CurrentPage().Value())
		return nil
	},
}

func printSlots(slots []wp.Slot[localstore.Film], at wp.PagePosition[int]) {
	first, last, loaded := -1, -1, 0
	for i, s := range slots {
		if !s.Loaded {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
		loaded++
	}
	fmt.Printf("page %d item %d: %d slots, %d loaded between %d and %d\n", at.Page, at.Index, len(slots), loaded, first, last)
}

var raceCmd = &cobra.Command{
	Use:   "race",
	Short: "Race a fast local source against the authoritative remote",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		local := wp.NewCachedDataSource[localstore.Film, int](remote.New(store.Source(), cfg.Local), time.Minute)
		authoritative := wp.NewRetryDataSource[localstore.Film, int](remote.New(store.Source(), cfg.Remote), 2, 100*time.Millisecond)
		pager, err := wp.NewRacingPager[localstore.Film, int](local, authoritative, 0, cfg.Pager)
		if err != nil {
			return err
		}
		defer pager.Destroy()
		drainErrors(pager.Errors())

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		updates := pager.Data().Subscribe(subCtx)
		start := time.Now()
		go func() {
			for films := range updates {
				fmt.Printf("%6s: %s\n", time.Since(start).Round(time.Millisecond), describe(films))
			}
		}()

		pager.OnNoItemVisible()
		if err := pager.Settle(ctx); err != nil {
			return err
		}
		fmt.Printf("settled after %s\n", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	simpleCmd.Flags().IntVar(&scrollSteps, "steps", 5, "number of scroll steps")
	jumpCmd.Flags().IntVar(&jumpPage, "page", 10, "page to jump to")
}
