// seed_hacienda genera scripts SQL para poblar la división territorial de
// Costa Rica (provincias, cantones y distritos) a partir del XML de
// ubicaciones que publica Hacienda (codificado en ISO-8859-1).
//
// Uso: go run ./cmd/seed_hacienda [ruta/Ubicaciones.xml]
// Por defecto busca Ubicaciones.xml en el directorio actual.
// Escribe: internal/infrastructure/postgres/migrations/001_seed_locations.sql
package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type ubicaciones struct {
	Provincias []provincia `xml:"provincia"`
}

type provincia struct {
	Codigo   string   `xml:"codigo,attr"` // 1 dígito
	Nombre   string   `xml:"nombre,attr"`
	Cantones []canton `xml:"canton"`
}

type canton struct {
	Codigo    string     `xml:"codigo,attr"` // 2 dígitos
	Nombre    string     `xml:"nombre,attr"`
	Distritos []distrito `xml:"distrito"`
}

type distrito struct {
	Codigo string `xml:"codigo,attr"` // 2 dígitos
	Nombre string `xml:"nombre,attr"`
}

func main() {
	xmlPath := "Ubicaciones.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	f, err := os.Open(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var u ubicaciones
	dec := xml.NewDecoder(f)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "ISO-8859-1") || strings.EqualFold(charset, "ISO8859-1") {
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&u); err != nil {
		fmt.Fprintf(os.Stderr, "Decodificar XML: %v\n", err)
		os.Exit(1)
	}

	sort.Slice(u.Provincias, func(i, j int) bool { return u.Provincias[i].Codigo < u.Provincias[j].Codigo })

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "001_seed_locations.sql")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Crear directorio: %v\n", err)
		os.Exit(1)
	}
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	out.WriteString("-- División territorial de Costa Rica (provincia/cantón/distrito)\n")
	out.WriteString("-- Generado desde Ubicaciones.xml (Hacienda)\n\n")

	var numCantones, numDistritos int

	out.WriteString("-- 1. Provincias\n")
	out.WriteString("INSERT INTO locations_provinces (code, name) VALUES\n")
	for i, p := range u.Provincias {
		sep := ","
		if i == len(u.Provincias)-1 {
			sep = ""
		}
		fmt.Fprintf(out, "  ('%s', '%s')%s\n", p.Codigo, escapeSQL(p.Nombre), sep)
	}
	out.WriteString("ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name;\n\n")

	out.WriteString("-- 2. Cantones y distritos\n")
	for _, p := range u.Provincias {
		for _, c := range p.Cantones {
			numCantones++
			fmt.Fprintf(out, "INSERT INTO locations_cantons (province_id, code, name)\n")
			fmt.Fprintf(out, "SELECT id, '%s', '%s' FROM locations_provinces WHERE code = '%s'\n",
				strings.TrimSpace(c.Codigo), escapeSQL(c.Nombre), p.Codigo)
			out.WriteString("ON CONFLICT (province_id, code) DO UPDATE SET name = EXCLUDED.name;\n")
			for _, d := range c.Distritos {
				numDistritos++
				fmt.Fprintf(out, "INSERT INTO locations_districts (canton_id, code, name)\n")
				fmt.Fprintf(out, "SELECT ca.id, '%s', '%s' FROM locations_cantons ca\n", strings.TrimSpace(d.Codigo), escapeSQL(d.Nombre))
				fmt.Fprintf(out, "  JOIN locations_provinces pr ON pr.id = ca.province_id AND pr.code = '%s'\n", p.Codigo)
				fmt.Fprintf(out, "WHERE ca.code = '%s'\n", strings.TrimSpace(c.Codigo))
				out.WriteString("ON CONFLICT (canton_id, code) DO UPDATE SET name = EXCLUDED.name;\n")
			}
		}
	}

	fmt.Printf("Generado %s: %d provincias, %d cantones, %d distritos\n",
		outPath, len(u.Provincias), numCantones, numDistritos)
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
