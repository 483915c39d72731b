// Package generator wires configuration, the sitemap store, the writer,
// the journal and the ping notifier into one owner object.
//
// A Generator is created per working directory. New loads the sitemap files
// already in the output directory, so Add and Remove act on the state left
// by earlier runs, and Flush rewrites only the files whose content changed.
//
//	gen, err := generator.New(ctx, *cfg)
//	if err != nil {
//		return err
//	}
//	defer gen.Close()
//
//	if _, err := gen.Add("/blog/hello", "blog", model.ChangeFrequencyWeekly, time.Now()); err != nil {
//		return err
//	}
//	res, err := gen.Flush(ctx)
//
// Like the store it wraps, a Generator is not safe for concurrent use.
package generator
