package output

import (
	"fmt"
	"io"
	"strings"
)

// WriteFluxGnuplot writes a script plotting the scalar flux of every
// group of csvName against x.
func WriteFluxGnuplot(w io.Writer, csvName, png string, numGroups int) error {
	var plots []string
	for g := 1; g <= numGroups; g++ {
		plots = append(plots, fmt.Sprintf("'%s' using 2:%d with points pointtype 7 title 'group %d'", csvName, 3+g, g))
	}
	_, err := fmt.Fprintf(w, `#!/usr/bin/gnuplot

set terminal png enhanced size 1200,800
set output '%s'
set datafile separator ','
set key autotitle columnhead

set xlabel 'x'
set ylabel 'scalar flux'
set title 'Scalar flux by element centroid'
set grid

plot %s
`, png, strings.Join(plots, ", \\\n     "))
	return err
}

// WriteSeriesGnuplot writes a script plotting a transient time series:
// normalized production against time, and step size on a second axis.
func WriteSeriesGnuplot(w io.Writer, csvName, png string) error {
	_, err := fmt.Fprintf(w, `#!/usr/bin/gnuplot

set terminal png enhanced size 1200,800
set output '%[2]s'
set datafile separator ','
set key autotitle columnhead

set xlabel 't'
set ylabel 'normalized production'
set y2label 'dt'
set y2tics
set title 'Transient power'
set grid

plot '%[1]s' using 2:3 with linespoints linewidth 2 title 'power', \
     '%[1]s' using 2:4 axes x1y2 with lines title 'dt'
`, csvName, png)
	return err
}
