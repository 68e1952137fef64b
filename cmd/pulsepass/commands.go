package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pulsepass/pulsepass-client/pkg/catalog"
	"github.com/pulsepass/pulsepass-client/pkg/pagination"
	"github.com/spf13/cobra"
)

func newArtistsCmd(opts *rootOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "artists",
		Short: "List every artist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			if refresh {
				if _, err := a.client.Invalidate(ctx, catalog.ArtistsEndpoint); err != nil {
					return err
				}
			}

			idx, result := a.catalog.Artists(ctx)
			renderArtists(cmd.OutOrStdout(), idx.All())
			reportPartial(cmd.ErrOrStderr(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "drop cached pages before collecting")
	return cmd
}

func newConcertsCmd(opts *rootOptions) *cobra.Command {
	var artistID int
	var artist string
	var location string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "concerts",
		Short: "List the concerts of one artist",
		Example: `  pulsepass concerts --artist-id 7
  pulsepass concerts --artist "Natalia Lafourcade"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if artistID == 0 && artist == "" {
				return errors.New("one of --artist-id or --artist is required")
			}
			if artistID < 0 {
				return fmt.Errorf("--artist-id must be positive (got %d)", artistID)
			}

			loc, err := time.LoadLocation(location)
			if err != nil {
				return fmt.Errorf("invalid --tz: %w", err)
			}

			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			if refresh {
				if _, err := a.client.Invalidate(ctx, catalog.ConcertsEndpoint); err != nil {
					return err
				}
			}

			name, bio := "", ""
			if artistID == 0 {
				idx, result := a.catalog.Artists(ctx)
				reportPartial(cmd.ErrOrStderr(), result)

				found, ok := idx.Lookup(artist)
				if !ok {
					return fmt.Errorf("artist %q not found", artist)
				}
				if found.ID <= 0 {
					return fmt.Errorf("artist %q has no id", found.Nombre)
				}
				artistID = found.ID
				name = found.Nombre
				bio = catalog.OrDefault(found.Biografia, catalog.NoBio)
			}

			concerts, result := a.catalog.ConcertsByArtist(ctx, artistID)
			if name == "" && len(concerts) > 0 {
				name = concerts[0].ArtistaNombre
			}

			out := cmd.OutOrStdout()
			if name != "" {
				fmt.Fprintf(out, "%s\n", name)
			}
			if bio != "" {
				fmt.Fprintf(out, "%s\n\n", bio)
			}
			renderConcerts(out, concerts, loc)
			reportPartial(cmd.ErrOrStderr(), result)
			return nil
		},
	}

	cmd.Flags().IntVar(&artistID, "artist-id", 0, "artist id")
	cmd.Flags().StringVar(&artist, "artist", "", "artist name or id, resolved against the artist list")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "drop cached pages before collecting")
	cmd.Flags().StringVar(&location, "tz", "America/Mexico_City", "time zone for concert dates")

	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			stats, err := a.catalog.Stats(ctx)
			if err != nil {
				return err
			}

			renderStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

// reportPartial warns on w when a collection ended early.
func reportPartial(w io.Writer, result pagination.Result) {
	switch {
	case result.Err != nil:
		fmt.Fprintf(w, "warning: partial result after %d pages: %v\n", result.Pages, result.Err)
	case result.Capped:
		fmt.Fprintf(w, "warning: stopped at the page limit after %d pages\n", result.Pages)
	}
	if result.Skipped > 0 {
		fmt.Fprintf(w, "warning: %d records skipped\n", result.Skipped)
	}
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func renderArtists(w io.Writer, artists []catalog.Artist) {
	table := newTable(w, []string{"ID", "Nombre", "Género", "País", "Popularidad"})
	for _, a := range artists {
		popularidad := catalog.NoCount
		if a.Popularidad != nil {
			popularidad = strconv.Itoa(*a.Popularidad)
		}
		table.Append([]string{
			catalog.OptionKey(a),
			a.Nombre,
			catalog.OrDefault(a.Genero, catalog.NoCount),
			catalog.OrDefault(a.Pais, catalog.NoCount),
			popularidad,
		})
	}
	table.Render()
}

func renderConcerts(w io.Writer, concerts []catalog.Concert, loc *time.Location) {
	if len(concerts) == 0 {
		fmt.Fprintln(w, catalog.NoConcerts)
		return
	}

	table := newTable(w, []string{"Evento", "Lugar", "Fecha", "Estado", "Taquilla", "Costos", "Asist. Proy", "Asist. Real", "Coordenadas"})
	for _, c := range concerts {
		table.Append([]string{
			catalog.OrDefault(c.NombreEvento, catalog.NoEvent) + " @ " + catalog.OrDefault(c.Venue, catalog.NoVenue),
			place(c),
			catalog.FormatFecha(c.Fecha, loc),
			catalog.ClassifyStatus(c.EffectiveStatus()),
			catalog.FormatMoney(c.IngresosTaquilla),
			catalog.FormatMoney(c.CostosProduccion),
			catalog.FormatCount(c.AsistenciaProyectada),
			catalog.FormatCount(c.AsistenciaReal),
			catalog.FormatCoordinates(c),
		})
	}
	table.Render()
}

func place(c catalog.Concert) string {
	city := catalog.OrDefault(c.Ciudad, catalog.NoCity)
	if c.Pais == "" {
		return city
	}
	return city + ", " + c.Pais
}

func renderStats(w io.Writer, stats *catalog.Stats) {
	kpis := newTable(w, []string{"Indicador", "Valor"})
	kpis.Append([]string{"Ingresos totales", catalog.FormatAmount(stats.Financieros.TotalIngresos)})
	kpis.Append([]string{"Costos totales", catalog.FormatAmount(stats.Financieros.TotalCostos)})
	kpis.Append([]string{"Ganancia neta", catalog.FormatAmount(stats.Financieros.GananciaNeta)})
	kpis.Append([]string{"Asistencia proyectada", catalog.FormatInt(stats.Asistencia.TotalAsistenciaProyectada)})
	kpis.Append([]string{"Asistencia real", catalog.FormatInt(stats.Asistencia.TotalAsistenciaReal)})
	kpis.Append([]string{"Cumplimiento de asistencia", catalog.FormatPercent(stats.Asistencia.TasaCumplimiento)})
	kpis.Render()

	fmt.Fprintln(w)
	top := newTable(w, []string{"Artista", "Popularidad"})
	for _, a := range stats.TopArtistas {
		top.Append([]string{a.Nombre, strconv.Itoa(a.Popularidad)})
	}
	top.Render()

	fmt.Fprintln(w)
	cities := newTable(w, []string{"Ciudad", "Ganancia neta"})
	for _, c := range stats.RentabilidadCiudad {
		cities.Append([]string{c.Ciudad, catalog.FormatAmount(c.GananciaNetaCiudad)})
	}
	cities.Render()
}
